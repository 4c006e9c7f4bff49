package pathfind

import (
	"container/heap"
	"math"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type neighbor struct {
	dx, dy   int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{dx: 0, dy: -1, cost: 1},
	{dx: 1, dy: 0, cost: 1},
	{dx: 0, dy: 1, cost: 1},
	{dx: -1, dy: 0, cost: 1},
	{dx: 1, dy: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: -1, cost: math.Sqrt2, diagonal: true},
}

// Finder runs A* searches over a Map. MaxNodes bounds the number of expanded
// cells per search (0 = unlimited).
type Finder struct {
	MaxNodes int
}

func NewFinder() *Finder { return &Finder{} }

// FindPath returns the waypoints from (x1,y1) to (x2,y2), both inclusive.
// Diagonal steps are only taken when both orthogonal cells are walkable.
func (f *Finder) FindPath(m *Map, x1, y1, x2, y2 int) ([]Point, bool) {
	if !m.Walkable(x1, y1) || !m.Walkable(x2, y2) {
		return nil, false
	}
	start := Point{X: x1, Y: y1}
	goal := Point{X: x2, Y: y2}
	if start == goal {
		return []Point{start}, true
	}

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &node{p: start, f: heuristic(start, goal)})
	gScore := map[int]float64{m.index(x1, y1): 0}
	closed := make(map[int]struct{})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		ci := m.index(cur.p.X, cur.p.Y)
		if _, seen := closed[ci]; seen {
			continue
		}
		closed[ci] = struct{}{}
		if cur.p == goal {
			return reconstruct(cur), true
		}
		expanded++
		if f != nil && f.MaxNodes > 0 && expanded > f.MaxNodes {
			return nil, false
		}

		for _, d := range neighborOffsets {
			nx, ny := cur.p.X+d.dx, cur.p.Y+d.dy
			if !m.Walkable(nx, ny) {
				continue
			}
			if d.diagonal && (!m.Walkable(cur.p.X+d.dx, cur.p.Y) || !m.Walkable(cur.p.X, cur.p.Y+d.dy)) {
				continue
			}
			ni := m.index(nx, ny)
			if _, seen := closed[ni]; seen {
				continue
			}
			g := cur.g + d.cost
			if prev, ok := gScore[ni]; ok && g >= prev {
				continue
			}
			gScore[ni] = g
			np := Point{X: nx, Y: ny}
			heap.Push(open, &node{p: np, g: g, f: g + heuristic(np, goal), parent: cur})
		}
	}
	return nil, false
}

// Octile distance.
func heuristic(a, b Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type node struct {
	p      Point
	g, f   float64
	index  int
	parent *node
}

type nodeQueue []*node

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}

func reconstruct(end *node) []Point {
	var path []Point
	for n := end; n != nil; n = n.parent {
		path = append(path, n.p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
