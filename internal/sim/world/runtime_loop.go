package world

import (
	"context"
	"errors"
	"time"
)

// Run owns the world until ctx is done or Stop is called. Joins, leaves and
// admin requests are handled as they arrive; the logic provider runs on
// every tick.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			err := w.Connect(req.Client)
			if req.Resp != nil {
				select {
				case req.Resp <- err:
				default:
				}
			}
		case id := <-w.leave:
			w.Disconnect(id)
		case req := <-w.admin:
			w.handleAdminSnapshotRequest(req)
		case <-ticker.C:
			w.Tick()
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Join returns the channel transports use to connect clients. Resp, when
// set, must be buffered.
func (w *World) Join() chan<- JoinRequest { return w.join }

func (w *World) Leave() chan<- string { return w.leave }

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Tick uint64
	Err  string
}

// RequestSnapshot asks the world loop to export the grid to the snapshot
// sink. It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, errors.New("admin snapshot not available")
	}
	resp := make(chan adminSnapshotResp, 1)
	select {
	case w.admin <- adminSnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Tick, errors.New(r.Err)
		}
		return r.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// exportToSink hands a grid export to the snapshot sink without blocking.
func (w *World) exportToSink() error {
	switch {
	case !w.ready():
		return ErrNotReady
	case w.snapshotSink == nil:
		return errors.New("snapshot sink not configured")
	}
	select {
	case w.snapshotSink <- w.ExportGrid():
		return nil
	default:
		return errors.New("snapshot sink backpressure")
	}
}

func (w *World) handleAdminSnapshotRequest(req adminSnapshotReq) {
	tick := w.tick.Load()
	errStr := ""
	if err := w.exportToSink(); err != nil {
		errStr = err.Error()
	}
	if req.Resp == nil {
		return
	}
	select {
	case req.Resp <- adminSnapshotResp{Tick: tick, Err: errStr}:
	default:
		// Caller gave up; never block the loop.
	}
}
