package pathfinding

import "github.com/duongdatdev/miniisland-2.0-sub000/tilemap"

// BFS is a level-order search; in a unit-cost grid its paths are shortest.
func BFS(g Grid, start, goal tilemap.Cell) []tilemap.Cell {
	if trivial, ok := trivialPath(g, start, goal); ok {
		return trivial
	}
	return NearestPath(g, start, func(c tilemap.Cell) bool { return c == goal })
}

// NearestPath runs BFS from start until it reaches a cell satisfying isGoal
// and returns the path to it, or nil when none is reachable.
func NearestPath(g Grid, start tilemap.Cell, isGoal func(tilemap.Cell) bool) []tilemap.Cell {
	if isGoal(start) {
		return []tilemap.Cell{start}
	}
	parent := map[tilemap.Cell]tilemap.Cell{start: start}
	queue := []tilemap.Cell{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range neighbours(current) {
			if _, seen := parent[n]; seen || !g.Walkable(n.Col, n.Row) {
				continue
			}
			parent[n] = current
			if isGoal(n) {
				return walkBack(parent, start, n)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func walkBack(parent map[tilemap.Cell]tilemap.Cell, start, end tilemap.Cell) []tilemap.Cell {
	path := []tilemap.Cell{end}
	for c := end; c != start; {
		c = parent[c]
		path = append(path, c)
	}
	reverse(path)
	return path
}
