package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/logic"
	"infond.dev/internal/sim/world"
	"infond.dev/internal/transport/observer"
)

func newTestWorldForServer(t *testing.T) (*world.World, chan snapshot.GridV1, func()) {
	t.Helper()
	p := logic.NewNative(logic.NativeConfig{Width: 16, Height: 12, DigsPerTick: 1, FoodSpawnsPerTick: 1}, 5)
	w, err := world.New(world.WorldConfig{ID: "arena", TickRateHz: 50}, p, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	sink := make(chan snapshot.GridV1, 1)
	w.SetSnapshotSink(sink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	return w, sink, func() {
		cancel()
		<-done
	}
}

func TestBuildMux_HealthAndMetrics(t *testing.T) {
	w, _, stop := newTestWorldForServer(t)
	defer stop()
	mux := buildMux(muxDeps{world: w, observer: observer.NewServer(w, nil, observer.Options{})})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`koth_world_ready{world="arena"} 1`,
		`koth_world_tick{world="arena"}`,
		"# TYPE koth_world_digs_total counter",
		`koth_world_queue_depth{world="arena",queue="join"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("admin disabled: got %d want 404", rr.Code)
	}
}

func TestBuildMux_AdminLoopback(t *testing.T) {
	w, sink, stop := newTestWorldForServer(t)
	defer stop()
	mux := buildMux(muxDeps{world: w, observer: observer.NewServer(w, nil, observer.Options{}), admin: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("remote state: got %d want 403", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var st struct {
		WorldID string             `json:"world_id"`
		Metrics world.WorldMetrics `json:"metrics"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.WorldID != "arena" || st.Metrics.Width != 16 || st.Metrics.State != "ready" {
		t.Fatalf("state: got %+v", st)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("snapshot: %d %s", rr.Code, rr.Body.String())
	}
	g := <-sink
	if g.Width != 16 || g.Height != 12 || g.Header.WorldID != "arena" {
		t.Fatalf("export: got %dx%d %s", g.Width, g.Height, g.Header.WorldID)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/v1/snapshot", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET snapshot: got %d want 405", rr.Code)
	}
}
