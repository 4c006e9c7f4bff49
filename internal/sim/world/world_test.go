package world

import (
	"errors"
	"testing"

	"infond.dev/internal/sim/logic"
)

func TestInitBuildsGrid(t *testing.T) {
	w, _ := newTestWorld(t)
	if w.State() != StateReady {
		t.Fatalf("state: got %v want ready", w.State())
	}
	if w.Width() != 20 || w.Height() != 15 || w.KothX() != 10 || w.KothY() != 7 {
		t.Fatalf("layout: got %dx%d koth=%d,%d", w.Width(), w.Height(), w.KothX(), w.KothY())
	}
	if !w.IsWalkable(10, 7) {
		t.Fatalf("koth tile not walkable")
	}
	if w.Sprite(10, 7) != SpriteKoth {
		t.Fatalf("koth sprite: got %d want %d", w.Sprite(10, 7), SpriteKoth)
	}
	if w.IsWalkable(0, 0) {
		t.Fatalf("corner walkable")
	}
	if got := w.WalkableCount(); got != 1 {
		t.Fatalf("walkable count: got %d want 1", got)
	}
	for x := 0; x < 20; x++ {
		for y := 0; y < 15; y++ {
			s := w.Sprite(x, y)
			switch {
			case x == 0 || y == 0 || x == 19 || y == 14:
				if !IsBorderSprite(s) {
					t.Fatalf("border %d,%d sprite %d", x, y, s)
				}
			case x == 10 && y == 7:
			default:
				if !IsSolidSprite(s) {
					t.Fatalf("interior %d,%d sprite %d", x, y, s)
				}
				if w.IsWalkable(x, y) {
					t.Fatalf("interior %d,%d walkable before any dig", x, y)
				}
			}
			if w.Food(x, y) != 0 {
				t.Fatalf("food at %d,%d: got %d", x, y, w.Food(x, y))
			}
		}
	}
}

func TestInitRejectsBadSetup(t *testing.T) {
	cases := []struct {
		name  string
		setup logic.Setup
		want  error
	}{
		{"too small", logic.Setup{Width: 9, Height: 15, KothX: 4, KothY: 7}, ErrInvalidWorldSize},
		{"too large", logic.Setup{Width: 256, Height: 15, KothX: 4, KothY: 7}, ErrInvalidWorldSize},
		{"koth on border", logic.Setup{Width: 20, Height: 15, KothX: 0, KothY: 7}, ErrInvalidKoth},
		{"koth on far border", logic.Setup{Width: 20, Height: 15, KothX: 10, KothY: 14}, ErrInvalidKoth},
		{"koth off grid", logic.Setup{Width: 20, Height: 15, KothX: 30, KothY: 7}, ErrInvalidKoth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := New(WorldConfig{}, &testProvider{setup: tc.setup}, nil)
			if err != nil {
				t.Fatalf("new world: %v", err)
			}
			if err := w.Init(); !errors.Is(err, tc.want) {
				t.Fatalf("init: got %v want %v", err, tc.want)
			}
			if w.State() != StateUninitialized {
				t.Fatalf("state: got %v want uninitialized", w.State())
			}
		})
	}
}

func TestInitProviderError(t *testing.T) {
	w, err := New(WorldConfig{}, &testProvider{initErr: errTickFailed}, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Init(); !errors.Is(err, errTickFailed) {
		t.Fatalf("init: got %v want %v", err, errTickFailed)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(WorldConfig{MaxTileFood: 255000}, &testProvider{}, nil); err == nil {
		t.Fatalf("expected error for max tile food reaching the empty sentinel")
	}
	if _, err := New(WorldConfig{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
	w, err := New(WorldConfig{}, &testProvider{}, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if w.Config().MaxTileFood != DefaultMaxTileFood || w.Config().TickRateHz != 10 {
		t.Fatalf("defaults: got %+v", w.Config())
	}
}

func TestInitTwice(t *testing.T) {
	w, _ := newTestWorld(t)
	if err := w.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second init: got %v want %v", err, ErrAlreadyInitialized)
	}
}

func TestTickCallsProvider(t *testing.T) {
	w, p := newTestWorld(t)
	p.tick = func(h logic.Host) error {
		h.Dig(5, 5)
		return nil
	}
	w.Tick()
	w.Tick()
	if p.ticks != 2 {
		t.Fatalf("provider ticks: got %d want 2", p.ticks)
	}
	if w.CurrentTick() != 2 {
		t.Fatalf("tick counter: got %d want 2", w.CurrentTick())
	}
	if !w.IsWalkable(5, 5) {
		t.Fatalf("dig from tick not applied")
	}
}

func TestTickErrorKeepsWorldReady(t *testing.T) {
	w, p := newTestWorld(t)
	tl := &memTickLog{}
	w.SetTickLogger(tl)
	p.tick = func(h logic.Host) error {
		h.Dig(3, 3)
		return errTickFailed
	}
	w.Tick()
	if w.State() != StateReady {
		t.Fatalf("state: got %v want ready", w.State())
	}
	if !w.IsWalkable(3, 3) {
		t.Fatalf("mutation before the error was rolled back")
	}
	if len(tl.entries) != 1 || tl.entries[0].Error == "" {
		t.Fatalf("tick log: got %+v", tl.entries)
	}
	if w.Metrics().TickErrorsTotal != 1 {
		t.Fatalf("tick errors: got %d want 1", w.Metrics().TickErrorsTotal)
	}
}

func TestTickBeforeInit(t *testing.T) {
	p := &testProvider{}
	w, err := New(WorldConfig{}, p, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	w.Tick()
	if p.ticks != 0 || w.CurrentTick() != 0 {
		t.Fatalf("tick ran on uninitialized world")
	}
}

func TestShutdown(t *testing.T) {
	w, p := newTestWorld(t)
	c := &recordingClient{id: "c1"}
	if err := w.Connect(c); err != nil {
		t.Fatalf("connect: %v", err)
	}
	w.Shutdown()
	if w.State() != StateUninitialized {
		t.Fatalf("state: got %v want uninitialized", w.State())
	}
	if w.ClientCount() != 0 {
		t.Fatalf("clients after shutdown: %d", w.ClientCount())
	}
	if w.Dig(5, 5) || w.IsWalkable(10, 7) || w.AddFood(10, 7, 10) != 0 {
		t.Fatalf("mutations allowed after shutdown")
	}
	if x, y := w.FindRandomWalkable(); x != -1 || y != -1 {
		t.Fatalf("FindRandomWalkable after shutdown: got %d,%d", x, y)
	}
	if p.closed {
		t.Fatalf("shutdown closed the provider")
	}
	w.Shutdown()

	if err := w.Init(); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if w.State() != StateReady || w.WalkableCount() != 1 {
		t.Fatalf("re-init: state=%v walkable=%d", w.State(), w.WalkableCount())
	}
}
