package world

type WorldMetrics struct {
	Tick  uint64 `json:"tick"`
	State string `json:"state"`

	Width  int `json:"width"`
	Height int `json:"height"`
	KothX  int `json:"koth_x"`
	KothY  int `json:"koth_y"`

	Clients   int   `json:"clients"`
	Walkable  int   `json:"walkable"`
	FoodTotal int64 `json:"food_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	DigsTotal       uint64 `json:"digs_total"`
	BroadcastsTotal uint64 `json:"broadcasts_total"`
	DroppedTotal    uint64 `json:"dropped_total"`
	TickErrorsTotal uint64 `json:"tick_errors_total"`
}

type QueueDepths struct {
	Join  int `json:"join"`
	Leave int `json:"leave"`
	Admin int `json:"admin"`
}

// Metrics is safe to call from any goroutine.
func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

// publishMetrics refreshes the metrics snapshot. A negative stepMS keeps the
// previous step duration.
func (w *World) publishMetrics(stepMS float64) {
	if stepMS < 0 {
		stepMS = w.Metrics().StepMS
	}
	wd, ht := w.Size()
	kx, ky := w.Koth()
	w.metrics.Store(WorldMetrics{
		Tick:      w.tick.Load(),
		State:     w.State().String(),
		Width:     wd,
		Height:    ht,
		KothX:     kx,
		KothY:     ky,
		Clients:   len(w.clients),
		Walkable:  w.WalkableCount(),
		FoodTotal: w.totals.food,
		QueueDepths: QueueDepths{
			Join:  len(w.join),
			Leave: len(w.leave),
			Admin: len(w.admin),
		},
		StepMS:          stepMS,
		DigsTotal:       w.totals.digs,
		BroadcastsTotal: w.totals.broadcasts,
		DroppedTotal:    w.totals.dropped,
		TickErrorsTotal: w.totals.tickErrors,
	})
}
