package pathfinding

import (
	"fmt"

	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Grid is the walkability view the searches need.
type Grid interface {
	Walkable(col, row int) bool
	InBounds(col, row int) bool
}

// Mode selects the search algorithm.
type Mode int

const (
	AStarMode Mode = iota
	BFSMode
)

func (m Mode) String() string {
	if m == BFSMode {
		return "bfs"
	}
	return "astar"
}

// ParseMode maps "astar"/"bfs" to a Mode. Anything else is an error.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "astar", "a*", "":
		return AStarMode, nil
	case "bfs":
		return BFSMode, nil
	}
	return AStarMode, fmt.Errorf("unknown path mode %q", s)
}

// FindPath returns the cells from start to goal inclusive. An empty result
// means no route exists and the caller should hold position.
func FindPath(g Grid, mode Mode, start, goal tilemap.Cell) []tilemap.Cell {
	if mode == BFSMode {
		return BFS(g, start, goal)
	}
	return AStar(g, start, goal)
}

// trivialPath handles the cases that need no search. The start cell itself
// need not be walkable; an entity standing on an odd tile can still leave it.
func trivialPath(g Grid, start, goal tilemap.Cell) ([]tilemap.Cell, bool) {
	if !g.InBounds(start.Col, start.Row) || !g.Walkable(goal.Col, goal.Row) {
		return nil, true
	}
	if start == goal {
		return []tilemap.Cell{start}, true
	}
	return nil, false
}

// up, right, down, left
var offsets = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func neighbours(c tilemap.Cell) [4]tilemap.Cell {
	var out [4]tilemap.Cell
	for i, o := range offsets {
		out[i] = tilemap.Cell{Col: c.Col + o[0], Row: c.Row + o[1]}
	}
	return out
}

func reverse(p []tilemap.Cell) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
