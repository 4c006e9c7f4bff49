package world

import (
	"math/rand"

	"infond.dev/internal/sim/logic"
	"infond.dev/internal/sim/pathfind"
)

// grid is the tile storage. Walkability lives in the pathfinding map; dug
// keeps the cell index of every walkable tile in dig order. Tiles never
// become solid again, so dug only grows.
type grid struct {
	w, h         int
	kothX, kothY int

	sprites []uint8
	food    []int
	nav     *pathfind.Map
	dug     []int
}

func newGrid(s logic.Setup, rng *rand.Rand) *grid {
	g := &grid{
		w:       s.Width,
		h:       s.Height,
		kothX:   s.KothX,
		kothY:   s.KothY,
		sprites: make([]uint8, s.Width*s.Height),
		food:    make([]int, s.Width*s.Height),
		nav:     pathfind.NewMap(s.Width, s.Height),
	}
	for x := 0; x < g.w; x++ {
		for y := 0; y < g.h; y++ {
			i := g.index(x, y)
			switch {
			case g.border(x, y):
				g.sprites[i] = SpriteBorder + uint8(rng.Intn(SpriteNumBorder))
			case x == g.kothX && y == g.kothY:
				g.sprites[i] = SpriteKoth
			default:
				g.sprites[i] = SpriteSolid + uint8(rng.Intn(SpriteNumSolid))
			}
		}
	}
	g.nav.Dig(g.kothX, g.kothY)
	g.dug = append(g.dug, g.index(g.kothX, g.kothY))
	return g
}

func (g *grid) index(x, y int) int { return y*g.w + x }

func (g *grid) onGrid(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

func (g *grid) border(x, y int) bool {
	return x == 0 || y == 0 || x == g.w-1 || y == g.h-1
}

func (g *grid) interior(x, y int) bool {
	return x >= 1 && y >= 1 && x < g.w-1 && y < g.h-1
}

func (g *grid) release() {
	g.nav.Release()
	g.sprites = nil
	g.food = nil
	g.dug = nil
}

// Dig makes an interior tile walkable. Border tiles are rejected. Digging an
// already walkable tile succeeds without any change.
func (w *World) Dig(x, y int) bool {
	if !w.ready() || !w.g.interior(x, y) {
		return false
	}
	g := w.g
	if g.nav.Walkable(x, y) {
		return true
	}
	if w.cfg.Debug {
		w.log.Printf("world_dig(%d, %d)", x, y)
	}
	g.nav.Dig(x, y)
	i := g.index(x, y)
	g.dug = append(g.dug, i)
	g.sprites[i] = SpritePlain + uint8(w.rng.Intn(SpriteNumPlain))
	w.cur.digs++
	w.totals.digs++
	w.tileChanged(x, y, true)
	return true
}

func (w *World) IsWalkable(x, y int) bool {
	if !w.ready() {
		return false
	}
	return w.g.nav.Walkable(x, y)
}

// FindRandomWalkable returns a uniformly chosen walkable tile, or -1,-1 when
// the world is not ready.
func (w *World) FindRandomWalkable() (x, y int) {
	if !w.ready() || len(w.g.dug) == 0 {
		return -1, -1
	}
	i := w.g.dug[w.rng.Intn(len(w.g.dug))]
	return i % w.g.w, i / w.g.w
}

func (w *World) FindPath(x1, y1, x2, y2 int) ([]pathfind.Point, bool) {
	if !w.ready() {
		return nil, false
	}
	return w.finder.FindPath(w.g.nav, x1, y1, x2, y2)
}

// WalkableCount is the number of walkable tiles.
func (w *World) WalkableCount() int {
	if !w.ready() {
		return 0
	}
	return len(w.g.dug)
}

func (w *World) Size() (int, int) {
	if w.g == nil {
		return 0, 0
	}
	return w.g.w, w.g.h
}

func (w *World) Koth() (int, int) {
	if w.g == nil {
		return 0, 0
	}
	return w.g.kothX, w.g.kothY
}

func (w *World) Width() int  { x, _ := w.Size(); return x }
func (w *World) Height() int { _, y := w.Size(); return y }
func (w *World) KothX() int  { x, _ := w.Koth(); return x }
func (w *World) KothY() int  { _, y := w.Koth(); return y }

// Sprite returns the sprite of a tile, 0 off-grid.
func (w *World) Sprite(x, y int) uint8 {
	if !w.ready() || !w.g.onGrid(x, y) {
		return 0
	}
	return w.g.sprites[w.g.index(x, y)]
}
