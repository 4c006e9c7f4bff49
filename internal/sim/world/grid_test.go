package world

import "testing"

func TestDig(t *testing.T) {
	w, _ := newTestWorld(t)
	c := &recordingClient{id: "c1"}
	if err := w.Connect(c); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.reset()

	if !w.Dig(5, 5) {
		t.Fatalf("dig 5,5 failed")
	}
	if !w.IsWalkable(5, 5) || !IsPlainSprite(w.Sprite(5, 5)) {
		t.Fatalf("5,5 after dig: walkable=%v sprite=%d", w.IsWalkable(5, 5), w.Sprite(5, 5))
	}
	ups := c.updates()
	if len(ups) != 1 || ups[0].X != 5 || ups[0].Y != 5 || ups[0].Sprite != w.Sprite(5, 5) {
		t.Fatalf("broadcast: got %+v", ups)
	}

	c.reset()
	sprite := w.Sprite(5, 5)
	if !w.Dig(5, 5) {
		t.Fatalf("second dig 5,5 failed")
	}
	if !w.Dig(10, 7) {
		t.Fatalf("dig on koth failed")
	}
	if len(c.msgs) != 0 {
		t.Fatalf("digging walkable tiles broadcast %d messages", len(c.msgs))
	}
	if w.Sprite(5, 5) != sprite || w.Sprite(10, 7) != SpriteKoth {
		t.Fatalf("sprites changed by repeat digs")
	}
	if w.WalkableCount() != 2 {
		t.Fatalf("walkable count: got %d want 2", w.WalkableCount())
	}
}

func TestDigRejectsBorderAndOffGrid(t *testing.T) {
	w, _ := newTestWorld(t)
	for _, p := range [][2]int{{0, 0}, {0, 5}, {19, 5}, {5, 14}, {5, 0}, {-1, 3}, {25, 3}, {3, 40}} {
		if w.Dig(p[0], p[1]) {
			t.Fatalf("dig %v succeeded", p)
		}
	}
	if w.WalkableCount() != 1 {
		t.Fatalf("walkable count: got %d want 1", w.WalkableCount())
	}
	if w.IsWalkable(-1, -1) || w.IsWalkable(20, 15) {
		t.Fatalf("off-grid tile walkable")
	}
}

func TestFindRandomWalkable(t *testing.T) {
	w, _ := newTestWorld(t)
	for i := 0; i < 20; i++ {
		if x, y := w.FindRandomWalkable(); x != 10 || y != 7 {
			t.Fatalf("only koth is walkable, got %d,%d", x, y)
		}
	}
	w.Dig(3, 3)
	w.Dig(4, 4)
	seen := map[[2]int]bool{}
	for i := 0; i < 300; i++ {
		x, y := w.FindRandomWalkable()
		if !w.IsWalkable(x, y) {
			t.Fatalf("returned solid tile %d,%d", x, y)
		}
		seen[[2]int{x, y}] = true
	}
	if len(seen) != 3 {
		t.Fatalf("distinct tiles: got %d want 3", len(seen))
	}
}

func TestFindPath(t *testing.T) {
	w, _ := newTestWorld(t)
	for x := 11; x <= 14; x++ {
		w.Dig(x, 7)
	}
	path, ok := w.FindPath(10, 7, 14, 7)
	if !ok || len(path) != 5 {
		t.Fatalf("path: ok=%v len=%d", ok, len(path))
	}
	if _, ok := w.FindPath(10, 7, 3, 3); ok {
		t.Fatalf("path to solid tile found")
	}
}
