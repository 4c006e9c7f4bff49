package world

import (
	"errors"
	"testing"

	"infond.dev/internal/protocol"
	"infond.dev/internal/sim/logic"
)

type testProvider struct {
	setup   logic.Setup
	initErr error
	tick    func(h logic.Host) error
	ticks   int
	closed  bool
}

func (p *testProvider) Init() (logic.Setup, error) { return p.setup, p.initErr }

func (p *testProvider) Tick(h logic.Host) error {
	p.ticks++
	if p.tick == nil {
		return nil
	}
	return p.tick(h)
}

func (p *testProvider) Close() error {
	p.closed = true
	return nil
}

// recordingClient keeps every message it is sent. With limit > 0 it drops
// messages once it holds limit of them.
type recordingClient struct {
	id    string
	limit int
	msgs  []protocol.Message
}

func (c *recordingClient) ID() string   { return c.id }
func (c *recordingClient) Addr() string { return "ip:127.0.0.1:4000" }

func (c *recordingClient) Send(m protocol.Message) bool {
	if c.limit > 0 && len(c.msgs) >= c.limit {
		return false
	}
	c.msgs = append(c.msgs, m)
	return true
}

func (c *recordingClient) updates() []protocol.WorldUpdate {
	var out []protocol.WorldUpdate
	for _, m := range c.msgs {
		if u, ok := m.(protocol.WorldUpdate); ok {
			out = append(out, u)
		}
	}
	return out
}

func (c *recordingClient) reset() { c.msgs = nil }

type memTickLog struct {
	entries []TickLogEntry
	err     error
}

func (l *memTickLog) WriteTick(e TickLogEntry) error {
	l.entries = append(l.entries, e)
	return l.err
}

var errTickFailed = errors.New("tick failed")

// newTestWorld returns a ready 20x15 world with KOTH at 10,7.
func newTestWorld(t *testing.T) (*World, *testProvider) {
	t.Helper()
	p := &testProvider{setup: logic.Setup{Width: 20, Height: 15, KothX: 10, KothY: 7}}
	w, err := New(WorldConfig{ID: "test", TickRateHz: 20, Seed: 1}, p, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return w, p
}
