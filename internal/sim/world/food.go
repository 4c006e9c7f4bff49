package world

import "infond.dev/internal/protocol"

// QuantizeFood is the food level clients see: thousands, or the empty
// sentinel for a tile without food.
func QuantizeFood(v int) uint8 {
	if v == 0 {
		return protocol.FoodEmpty
	}
	return uint8(v / 1000)
}

// AddFood adds (or with a negative amount removes) food on a walkable tile,
// clamped to [0, MaxTileFood]. It returns the change actually applied.
func (w *World) AddFood(x, y, amount int) int {
	if !w.ready() || !w.g.nav.Walkable(x, y) {
		return 0
	}
	max := w.cfg.MaxTileFood
	if amount > max {
		amount = max
	}
	if amount < -max {
		amount = -max
	}

	i := w.g.index(x, y)
	old := w.g.food[i]
	nv := old + amount
	if nv > max {
		nv = max
	}
	if nv < 0 {
		nv = 0
	}
	if nv == old {
		return 0
	}
	w.g.food[i] = nv
	delta := nv - old
	if delta > 0 {
		w.cur.foodAdded += delta
	} else {
		w.cur.foodEaten -= delta
	}
	w.totals.food += int64(delta)
	w.tileChanged(x, y, QuantizeFood(nv) != QuantizeFood(old))
	return delta
}

// EatFood consumes up to amount from any on-grid tile and returns what was
// consumed.
func (w *World) EatFood(x, y, amount int) int {
	if !w.ready() || !w.g.onGrid(x, y) || amount <= 0 {
		return 0
	}
	i := w.g.index(x, y)
	old := w.g.food[i]
	if amount > old {
		amount = old
	}
	if amount == 0 {
		return 0
	}
	nv := old - amount
	w.g.food[i] = nv
	w.cur.foodEaten += amount
	w.totals.food -= int64(amount)
	w.tileChanged(x, y, QuantizeFood(nv) != QuantizeFood(old))
	return amount
}

// Food returns the exact amount on a tile, 0 off-grid.
func (w *World) Food(x, y int) int {
	if !w.ready() || !w.g.onGrid(x, y) {
		return 0
	}
	return w.g.food[w.g.index(x, y)]
}
