package world

import (
	"fmt"

	"infond.dev/internal/protocol"
)

type WorldConfig struct {
	ID          string
	TickRateHz  int
	Seed        int64
	MaxTileFood int

	// PathMaxNodes bounds the cells expanded per FindPath call (0 = unlimited).
	PathMaxNodes int

	// ExportEveryTicks sends a grid export to the snapshot sink every N
	// ticks (0 = only on request).
	ExportEveryTicks int

	// Debug logs every dig.
	Debug bool
}

const DefaultMaxTileFood = 9999

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "arena"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 10
	}
	if c.MaxTileFood <= 0 {
		c.MaxTileFood = DefaultMaxTileFood
	}
}

func (c WorldConfig) validate() error {
	// The quantized value must stay below the empty sentinel.
	if c.MaxTileFood/1000 >= protocol.FoodEmpty {
		return fmt.Errorf("max tile food %d exceeds client range", c.MaxTileFood)
	}
	if c.TickRateHz > 1000 {
		return fmt.Errorf("tick rate %d Hz too high", c.TickRateHz)
	}
	return nil
}
