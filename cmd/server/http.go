package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"infond.dev/internal/sim/world"
	"infond.dev/internal/transport/observer"
)

type muxDeps struct {
	world    *world.World
	observer *observer.Server
	index    runtimeIndex
	admin    bool
}

func buildMux(d muxDeps) *http.ServeMux {
	w := d.world
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if w.State() != world.StateReady {
			http.Error(rw, w.State().String(), http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, w.ID(), w.Metrics(), d.index)
	})
	mux.HandleFunc("/v1/observe", d.observer.WSHandler())

	if !d.admin {
		return mux
	}
	// Local-only admin endpoints.
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !observer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string             `json:"world_id"`
			Tick    uint64             `json:"tick"`
			Metrics world.WorldMetrics `json:"metrics"`
		}{
			WorldID: w.ID(),
			Tick:    w.CurrentTick(),
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !observer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		tick, err := w.RequestSnapshot(ctx)
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
	})
	return mux
}

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(rw http.ResponseWriter, worldID string, m world.WorldMetrics, idx runtimeIndex) {
	gauge := func(name, help string) {
		fmt.Fprintf(rw, "# HELP %s %s\n# TYPE %s gauge\n", name, help, name)
	}
	counter := func(name, help string) {
		fmt.Fprintf(rw, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
	}

	gauge("koth_world_tick", "Current world tick.")
	fmt.Fprintf(rw, "koth_world_tick{world=%q} %d\n", worldID, m.Tick)

	gauge("koth_world_ready", "1 when the world accepts clients.")
	ready := 0
	if m.State == world.StateReady.String() {
		ready = 1
	}
	fmt.Fprintf(rw, "koth_world_ready{world=%q} %d\n", worldID, ready)

	gauge("koth_world_clients", "Current number of connected clients.")
	fmt.Fprintf(rw, "koth_world_clients{world=%q} %d\n", worldID, m.Clients)

	gauge("koth_world_walkable_tiles", "Number of walkable tiles.")
	fmt.Fprintf(rw, "koth_world_walkable_tiles{world=%q} %d\n", worldID, m.Walkable)

	gauge("koth_world_food", "Total food on the grid.")
	fmt.Fprintf(rw, "koth_world_food{world=%q} %d\n", worldID, m.FoodTotal)

	gauge("koth_world_queue_depth", "Channel backlog depth.")
	fmt.Fprintf(rw, "koth_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "koth_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "koth_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "admin", m.QueueDepths.Admin)

	gauge("koth_world_step_ms", "Last tick step duration in milliseconds.")
	fmt.Fprintf(rw, "koth_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	counter("koth_world_digs_total", "Tiles dug.")
	fmt.Fprintf(rw, "koth_world_digs_total{world=%q} %d\n", worldID, m.DigsTotal)

	counter("koth_world_broadcasts_total", "Tile updates broadcast.")
	fmt.Fprintf(rw, "koth_world_broadcasts_total{world=%q} %d\n", worldID, m.BroadcastsTotal)

	counter("koth_world_dropped_sends_total", "Messages a client outbox refused.")
	fmt.Fprintf(rw, "koth_world_dropped_sends_total{world=%q} %d\n", worldID, m.DroppedTotal)

	counter("koth_world_tick_errors_total", "Logic ticks that returned an error.")
	fmt.Fprintf(rw, "koth_world_tick_errors_total{world=%q} %d\n", worldID, m.TickErrorsTotal)

	if idx == nil {
		return
	}
	s := idx.Stats()
	gauge("koth_index_queue_depth", "Index writer queue depth.")
	fmt.Fprintf(rw, "koth_index_queue_depth %d\n", s.QueueDepth)
	counter("koth_index_dropped_total", "Index writes dropped because the queue was full.")
	fmt.Fprintf(rw, "koth_index_dropped_total{kind=%q} %d\n", "tick", s.DropTickTotal)
	fmt.Fprintf(rw, "koth_index_dropped_total{kind=%q} %d\n", "export", s.DropExportTotal)
}
