package world

import (
	"context"
	"testing"
	"time"

	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/logic"
)

func TestRunHandlesJoinTickAndStop(t *testing.T) {
	w, p := newTestWorld(t)
	ticked := make(chan struct{}, 1)
	p.tick = func(h logic.Host) error {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	c := &recordingClient{id: "c1"}
	resp := make(chan error, 1)
	w.Join() <- JoinRequest{Client: c, Resp: resp}
	select {
	case err := <-resp:
		if err != nil {
			t.Fatalf("join: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("join timed out")
	}

	select {
	case <-ticked:
	case <-ctx.Done():
		t.Fatalf("no tick")
	}

	if _, err := w.RequestSnapshot(ctx); err == nil {
		t.Fatalf("snapshot without sink: expected error")
	}

	w.Stop()
	w.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("run did not stop")
	}
	// The loop has exited; reading from this goroutine is safe now.
	if w.ClientCount() != 1 || len(c.msgs) != 1+20*15 {
		t.Fatalf("client: count=%d msgs=%d", w.ClientCount(), len(c.msgs))
	}
}

func TestRunContextCancel(t *testing.T) {
	w, _ := newTestWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run: got %v want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return")
	}
}

func TestAdminSnapshotRequest(t *testing.T) {
	w, _ := newTestWorld(t)
	w.Dig(4, 4)
	w.AddFood(4, 4, 1234)
	sink := make(chan snapshot.GridV1, 1)
	w.SetSnapshotSink(sink)

	resp := make(chan adminSnapshotResp, 1)
	w.handleAdminSnapshotRequest(adminSnapshotReq{Resp: resp})
	if r := <-resp; r.Err != "" {
		t.Fatalf("snapshot: %s", r.Err)
	}
	g := <-sink
	if err := g.Validate(); err != nil {
		t.Fatalf("export: %v", err)
	}
	i := 4*g.Width + 4
	if !g.Walkable[i] || g.Food[i] != 1234 || g.Sprites[i] != w.Sprite(4, 4) {
		t.Fatalf("cell 4,4: walkable=%v food=%d sprite=%d", g.Walkable[i], g.Food[i], g.Sprites[i])
	}
	if snapshot.Digest(g) != w.StateDigest() {
		t.Fatalf("digest mismatch")
	}

	// Full sink reports backpressure instead of blocking.
	sink <- g
	w.handleAdminSnapshotRequest(adminSnapshotReq{Resp: resp})
	if r := <-resp; r.Err == "" {
		t.Fatalf("expected backpressure error")
	}
}

func TestPeriodicExport(t *testing.T) {
	p := &testProvider{setup: logic.Setup{Width: 20, Height: 15, KothX: 10, KothY: 7}}
	w, err := New(WorldConfig{ExportEveryTicks: 3}, p, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	sink := make(chan snapshot.GridV1, 4)
	w.SetSnapshotSink(sink)
	for i := 0; i < 7; i++ {
		w.Tick()
	}
	if len(sink) != 2 {
		t.Fatalf("exports: got %d want 2", len(sink))
	}
	if g := <-sink; g.Header.Tick != 3 {
		t.Fatalf("first export tick: got %d want 3", g.Header.Tick)
	}
}
