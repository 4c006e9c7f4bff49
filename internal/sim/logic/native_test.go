package logic

import (
	"errors"
	"testing"
)

func TestNative_InitDefaults(t *testing.T) {
	n := NewNative(NativeConfig{Width: 20, Height: 15}, 1)
	s, err := n.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s != (Setup{Width: 20, Height: 15, KothX: 10, KothY: 7}) {
		t.Fatalf("setup: got %+v", s)
	}
}

func TestNative_TickDigsAndSpawnsFood(t *testing.T) {
	n := NewNative(NativeConfig{Width: 20, Height: 15, DigsPerTick: 4, FoodSpawnsPerTick: 2, FoodSpawnAmount: 300}, 7)
	s, _ := n.Init()
	h := newFakeHost(s.Width, s.Height, s.KothX, s.KothY)

	for i := 0; i < 10; i++ {
		if err := n.Tick(h); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if h.digs == 0 {
		t.Fatalf("expected the cave to grow")
	}
	if got, want := h.addCalls, 20; got != want {
		t.Fatalf("food spawns: got %d want %d", got, want)
	}
	if got, want := h.Food(s.KothX, s.KothY), 20*300; got != want {
		t.Fatalf("food on koth: got %d want %d", got, want)
	}
}

func TestNative_DigLimit(t *testing.T) {
	n := NewNative(NativeConfig{Width: 10, Height: 10, DigsPerTick: 50, MaxDugPermille: 1}, 3)
	s, _ := n.Init()
	h := newFakeHost(s.Width, s.Height, s.KothX, s.KothY)
	if err := n.Tick(h); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if h.digs != 0 {
		t.Fatalf("dig budget exhausted by the koth tile, got %d digs", h.digs)
	}
}

func TestNew_Kinds(t *testing.T) {
	p, err := New(Options{Kind: "native", Native: NativeConfig{Width: 12, Height: 12}})
	if err != nil {
		t.Fatalf("native: %v", err)
	}
	if _, ok := p.(*Native); !ok {
		t.Fatalf("native kind: got %T", p)
	}
	if _, err := New(Options{Kind: "python"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown kind: got %v", err)
	}
	if _, err := New(Options{Kind: "lua"}); err == nil {
		t.Fatalf("lua without a script should fail")
	}
}
