package logic

import "infond.dev/internal/sim/pathfind"

// fakeHost is a minimal in-memory Host for provider tests.
type fakeHost struct {
	w, h     int
	kx, ky   int
	nav      *pathfind.Map
	food     map[[2]int]int
	digs     int
	addCalls int
}

func newFakeHost(w, h, kx, ky int) *fakeHost {
	m := pathfind.NewMap(w, h)
	m.Dig(kx, ky)
	return &fakeHost{w: w, h: h, kx: kx, ky: ky, nav: m, food: map[[2]int]int{}}
}

func (f *fakeHost) Dig(x, y int) bool {
	if x < 1 || y < 1 || x >= f.w-1 || y >= f.h-1 {
		return false
	}
	if f.nav.Dig(x, y) {
		f.digs++
	}
	return true
}

func (f *fakeHost) AddFood(x, y, amount int) int {
	f.addCalls++
	if !f.nav.Walkable(x, y) {
		return 0
	}
	f.food[[2]int{x, y}] += amount
	return amount
}

func (f *fakeHost) EatFood(x, y, amount int) int {
	have := f.food[[2]int{x, y}]
	if amount > have {
		amount = have
	}
	f.food[[2]int{x, y}] = have - amount
	return amount
}

func (f *fakeHost) Food(x, y int) int              { return f.food[[2]int{x, y}] }
func (f *fakeHost) IsWalkable(x, y int) bool       { return f.nav.Walkable(x, y) }
func (f *fakeHost) FindRandomWalkable() (int, int) { return f.kx, f.ky }
func (f *fakeHost) FindPath(x1, y1, x2, y2 int) ([]pathfind.Point, bool) {
	return pathfind.NewFinder().FindPath(f.nav, x1, y1, x2, y2)
}
func (f *fakeHost) Size() (int, int) { return f.w, f.h }
func (f *fakeHost) Koth() (int, int) { return f.kx, f.ky }
