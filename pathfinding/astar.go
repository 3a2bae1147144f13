package pathfinding

import (
	"container/heap"

	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// AStarNode represents a node in the A* algorithm's search space.
type AStarNode struct {
	Cell   tilemap.Cell
	G      int        // Cost from start node to this node
	H      int        // Manhattan distance to the goal
	F      int        // Total estimated cost (G + H)
	Seq    int        // Insertion order, breaks ties in F
	Parent *AStarNode // Reference to the parent node for path reconstruction
	Index  int        // Index in the priority queue (required by container/heap)
}

// PriorityQueue implements heap.Interface for AStarNode to manage the open set.
// Equal F scores pop in insertion order, which keeps results deterministic.
type PriorityQueue []*AStarNode

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F != pq[j].F {
		return pq[i].F < pq[j].F
	}
	return pq[i].Seq < pq[j].Seq
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*AStarNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil  // Avoid memory leaks
	node.Index = -1 // Mark as removed
	*pq = old[0 : n-1]
	return node
}

func manhattan(a, b tilemap.Cell) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

// AStar searches with unit-cost cardinal steps and a closed set. Stale
// open-set entries are skipped on pop instead of being re-keyed.
func AStar(g Grid, start, goal tilemap.Cell) []tilemap.Cell {
	if trivial, ok := trivialPath(g, start, goal); ok {
		return trivial
	}

	seq := 0
	startNode := &AStarNode{Cell: start, H: manhattan(start, goal)}
	startNode.F = startNode.H

	openSet := make(PriorityQueue, 0)
	heap.Push(&openSet, startNode)

	gScore := map[tilemap.Cell]int{start: 0}
	closed := make(map[tilemap.Cell]bool)

	for openSet.Len() > 0 {
		current := heap.Pop(&openSet).(*AStarNode)
		if closed[current.Cell] {
			continue
		}
		if current.Cell == goal {
			return reconstruct(current)
		}
		closed[current.Cell] = true

		for _, n := range neighbours(current.Cell) {
			if closed[n] || !g.Walkable(n.Col, n.Row) {
				continue
			}
			tentative := current.G + 1
			if best, ok := gScore[n]; ok && tentative >= best {
				continue
			}
			gScore[n] = tentative
			seq++
			node := &AStarNode{Cell: n, G: tentative, H: manhattan(n, goal), Seq: seq, Parent: current}
			node.F = node.G + node.H
			heap.Push(&openSet, node)
		}
	}
	return nil
}

func reconstruct(n *AStarNode) []tilemap.Cell {
	var path []tilemap.Cell
	for ; n != nil; n = n.Parent {
		path = append(path, n.Cell)
	}
	reverse(path)
	return path
}
