package logic

import (
	"math/rand"
)

// NativeConfig parameterizes the built-in game logic.
type NativeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	KothX  int `yaml:"koth_x"`
	KothY  int `yaml:"koth_y"`

	// Tunnel growth: each step extends the cave from a random walkable tile.
	DigsPerTick    int `yaml:"digs_per_tick"`
	MaxDugPermille int `yaml:"max_dug_permille"`

	FoodSpawnsPerTick int `yaml:"food_spawns_per_tick"`
	FoodSpawnAmount   int `yaml:"food_spawn_amount"`
}

func (c *NativeConfig) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 40
	}
	if c.Height <= 0 {
		c.Height = 30
	}
	if c.KothX <= 0 {
		c.KothX = c.Width / 2
	}
	if c.KothY <= 0 {
		c.KothY = c.Height / 2
	}
	if c.DigsPerTick < 0 {
		c.DigsPerTick = 0
	}
	if c.MaxDugPermille <= 0 || c.MaxDugPermille > 1000 {
		c.MaxDugPermille = 600
	}
	if c.FoodSpawnsPerTick < 0 {
		c.FoodSpawnsPerTick = 0
	}
	if c.FoodSpawnAmount <= 0 {
		c.FoodSpawnAmount = 500
	}
}

var digDirs = [...][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Native is the built-in game logic: a cave grows outwards from the KOTH
// tile and food appears on random dug tiles.
type Native struct {
	cfg NativeConfig
	rng *rand.Rand
	dug int
}

func NewNative(cfg NativeConfig, seed int64) *Native {
	cfg.applyDefaults()
	return &Native{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (n *Native) Init() (Setup, error) {
	n.dug = 1
	return Setup{
		Width:  n.cfg.Width,
		Height: n.cfg.Height,
		KothX:  n.cfg.KothX,
		KothY:  n.cfg.KothY,
	}, nil
}

func (n *Native) Tick(h Host) error {
	w, ht := h.Size()
	limit := (w - 2) * (ht - 2) * n.cfg.MaxDugPermille / 1000
	for i := 0; i < n.cfg.DigsPerTick && n.dug < limit; i++ {
		x, y := h.FindRandomWalkable()
		d := digDirs[n.rng.Intn(len(digDirs))]
		nx, ny := x+d[0], y+d[1]
		if h.IsWalkable(nx, ny) {
			continue
		}
		if h.Dig(nx, ny) {
			n.dug++
		}
	}
	for i := 0; i < n.cfg.FoodSpawnsPerTick; i++ {
		x, y := h.FindRandomWalkable()
		h.AddFood(x, y, n.cfg.FoodSpawnAmount)
	}
	return nil
}

func (n *Native) Close() error { return nil }
