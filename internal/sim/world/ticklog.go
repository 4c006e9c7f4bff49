package world

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry covers everything that happened since the previous entry:
// client joins/leaves and every tile state change, in order.
type TickLogEntry struct {
	Tick       uint64         `json:"tick"`
	Joins      []RecordedJoin `json:"joins,omitempty"`
	Leaves     []string       `json:"leaves,omitempty"`
	Changes    []TileChange   `json:"changes,omitempty"`
	Digs       int            `json:"digs"`
	FoodAdded  int            `json:"food_added"`
	FoodEaten  int            `json:"food_eaten"`
	Broadcasts int            `json:"broadcasts"`
	Clients    int            `json:"clients"`
	Error      string         `json:"error,omitempty"`
	StepMS     float64        `json:"step_ms"`
}

type RecordedJoin struct {
	ClientID string `json:"client_id"`
	Addr     string `json:"addr"`
}

// TileChange is the exact server-side state of a tile after a change.
type TileChange struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	Sprite   uint8 `json:"sprite"`
	Food     int   `json:"food"`
	Walkable bool  `json:"walkable"`
}

type tickStats struct {
	joins      []RecordedJoin
	leaves     []string
	changes    []TileChange
	digs       int
	foodAdded  int
	foodEaten  int
	broadcasts int
	err        string
}

type totals struct {
	digs       uint64
	broadcasts uint64
	dropped    uint64
	tickErrors uint64
	food       int64
}

func (w *World) flushTick(tick uint64, stepMS float64) {
	if w.tickLogger != nil {
		entry := TickLogEntry{
			Tick:       tick,
			Joins:      w.cur.joins,
			Leaves:     w.cur.leaves,
			Changes:    w.cur.changes,
			Digs:       w.cur.digs,
			FoodAdded:  w.cur.foodAdded,
			FoodEaten:  w.cur.foodEaten,
			Broadcasts: w.cur.broadcasts,
			Clients:    len(w.clients),
			Error:      w.cur.err,
			StepMS:     stepMS,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}
	w.cur = tickStats{}
}
