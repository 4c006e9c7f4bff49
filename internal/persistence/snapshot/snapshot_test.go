package snapshot

import (
	"path/filepath"
	"testing"
)

func sampleGrid() GridV1 {
	g := GridV1{
		Header:      Header{Version: Version, WorldID: "arena", Tick: 42},
		Seed:        7,
		TickRate:    5,
		MaxTileFood: 9999,
		Width:       10,
		Height:      10,
		KothX:       5,
		KothY:       5,
		Sprites:     make([]uint8, 100),
		Food:        make([]int, 100),
		Walkable:    make([]bool, 100),
	}
	g.Walkable[55] = true
	g.Food[55] = 1234
	g.Sprites[55] = 13
	return g
}

func TestWriteReadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grids", "42.grid.zst")
	want := sampleGrid()
	if err := WriteGrid(path, want); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}

	got, err := ReadGrid(path)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if got.Header != want.Header || got.Width != 10 || got.KothX != 5 {
		t.Fatalf("header/dims: got %+v", got.Header)
	}
	if !got.Walkable[55] || got.Food[55] != 1234 || got.Sprites[55] != 13 {
		t.Fatalf("cell 55: walkable=%v food=%d sprite=%d", got.Walkable[55], got.Food[55], got.Sprites[55])
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Tick != 42 || h.WorldID != "arena" {
		t.Fatalf("header: got %+v", h)
	}
}

func TestGridValidate(t *testing.T) {
	g := sampleGrid()
	g.Food = g.Food[:10]
	if err := g.Validate(); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestDigestTracksCells(t *testing.T) {
	a := sampleGrid()
	b := sampleGrid()
	b.Header.Tick = 99
	if Digest(a) != Digest(b) {
		t.Fatalf("header must not change the digest")
	}
	if !b.Apply(3, 4, 9, 2000, true) {
		t.Fatalf("Apply on grid returned false")
	}
	if Digest(a) == Digest(b) {
		t.Fatalf("digest unchanged after Apply")
	}
	if b.Apply(10, 0, 9, 0, true) {
		t.Fatalf("Apply off grid returned true")
	}
	if !a.Apply(3, 4, 9, 2000, true) || Digest(a) != Digest(b) {
		t.Fatalf("same cells, different digests")
	}
}
