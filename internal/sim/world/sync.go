package world

import "infond.dev/internal/protocol"

type JoinRequest struct {
	Client Client
	Resp   chan error
}

func (w *World) tileUpdate(x, y int) protocol.WorldUpdate {
	i := w.g.index(x, y)
	return protocol.NewWorldUpdate(x, y, w.g.sprites[i], QuantizeFood(w.g.food[i]))
}

// Connect registers a client and sends it the full grid.
func (w *World) Connect(c Client) error {
	if !w.ready() {
		return ErrNotReady
	}
	if c == nil || c.ID() == "" {
		return ErrBadClient
	}
	w.clients[c.ID()] = c
	w.cur.joins = append(w.cur.joins, RecordedJoin{ClientID: c.ID(), Addr: c.Addr()})
	n := w.SendFullSnapshot(c)
	w.log.Printf("client %s (%s) connected, snapshot %d messages", c.ID(), c.Addr(), n)
	w.publishMetrics(-1)
	return nil
}

func (w *World) Disconnect(id string) {
	c, ok := w.clients[id]
	if !ok {
		return
	}
	delete(w.clients, id)
	w.cur.leaves = append(w.cur.leaves, id)
	w.log.Printf("client %s (%s) disconnected", id, c.Addr())
	w.publishMetrics(-1)
}

// SendFullSnapshot sends WORLD_INFO followed by one WORLD_UPDATE per tile,
// x-major. It stops at the first message the client drops and returns the
// number delivered.
func (w *World) SendFullSnapshot(c Client) int {
	if !w.ready() {
		return 0
	}
	if !c.Send(protocol.NewWorldInfo(w.g.w, w.g.h)) {
		w.totals.dropped++
		return 0
	}
	sent := 1
	for x := 0; x < w.g.w; x++ {
		for y := 0; y < w.g.h; y++ {
			if !c.Send(w.tileUpdate(x, y)) {
				w.totals.dropped++
				return sent
			}
			sent++
		}
	}
	return sent
}

func (w *World) broadcastTile(x, y int) {
	m := w.tileUpdate(x, y)
	for _, c := range w.clients {
		if !c.Send(m) {
			w.totals.dropped++
		}
	}
	w.cur.broadcasts++
	w.totals.broadcasts++
}

// tileChanged records a state change for the tick log and, when the change
// is visible to clients, broadcasts the tile.
func (w *World) tileChanged(x, y int, visible bool) {
	i := w.g.index(x, y)
	w.cur.changes = append(w.cur.changes, TileChange{
		X:        x,
		Y:        y,
		Sprite:   w.g.sprites[i],
		Food:     w.g.food[i],
		Walkable: w.g.nav.Walkable(x, y),
	})
	if visible {
		w.broadcastTile(x, y)
	}
}
