package world

import "infond.dev/internal/persistence/snapshot"

// ExportGrid copies the full grid state. The zero value is returned when the
// world is not ready.
func (w *World) ExportGrid() snapshot.GridV1 {
	if !w.ready() {
		return snapshot.GridV1{}
	}
	g := w.g
	n := g.w * g.h
	out := snapshot.GridV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    w.tick.Load(),
		},
		Seed:        w.cfg.Seed,
		TickRate:    w.cfg.TickRateHz,
		MaxTileFood: w.cfg.MaxTileFood,
		Width:       g.w,
		Height:      g.h,
		KothX:       g.kothX,
		KothY:       g.kothY,
		Sprites:     make([]uint8, n),
		Food:        make([]int, n),
		Walkable:    make([]bool, n),
	}
	copy(out.Sprites, g.sprites)
	copy(out.Food, g.food)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			out.Walkable[g.index(x, y)] = g.nav.Walkable(x, y)
		}
	}
	return out
}

// StateDigest hashes the current grid; see snapshot.Digest.
func (w *World) StateDigest() string {
	return snapshot.Digest(w.ExportGrid())
}
