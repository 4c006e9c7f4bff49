package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"infond.dev/internal/sim/logic"
)

type Tuning struct {
	WorldID      string `yaml:"world_id"`
	TickRateHz   int    `yaml:"tick_rate_hz"`
	Seed         int64  `yaml:"seed"`
	MaxTileFood  int    `yaml:"max_tile_food"`
	PathMaxNodes int    `yaml:"path_max_nodes"`
	Debug        bool   `yaml:"debug"`

	Logic       Logic       `yaml:"logic"`
	Transport   Transport   `yaml:"transport"`
	Persistence Persistence `yaml:"persistence"`
}

type Logic struct {
	Kind   string             `yaml:"kind"`
	Script string             `yaml:"script"`
	Native logic.NativeConfig `yaml:"native"`
}

type Transport struct {
	TCPListen           string  `yaml:"tcp_listen"`
	HTTPListen          string  `yaml:"http_listen"`
	OutboxBytes         int     `yaml:"outbox_bytes"`
	AcceptRatePerSec    float64 `yaml:"accept_rate_per_sec"`
	AcceptBurst         int     `yaml:"accept_burst"`
	ObserverAllowRemote bool    `yaml:"observer_allow_remote"`
}

type Persistence struct {
	DataDir          string `yaml:"data_dir"`
	UpdateLog        bool   `yaml:"update_log"`
	IndexDB          bool   `yaml:"index_db"`
	ExportEveryTicks int    `yaml:"export_every_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		WorldID:     "arena",
		TickRateHz:  10,
		Seed:        1337,
		MaxTileFood: 9999,
		Logic: Logic{
			Kind: logic.KindNative,
		},
		Transport: Transport{
			TCPListen:        "0.0.0.0:1234",
			HTTPListen:       "127.0.0.1:8080",
			OutboxBytes:      1 << 20,
			AcceptRatePerSec: 5,
			AcceptBurst:      10,
		},
		Persistence: Persistence{
			DataDir:   "./data",
			UpdateLog: true,
			IndexDB:   true,
		},
	}
}

// Load reads a YAML file on top of Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, t.Validate()
}

func (t Tuning) Validate() error {
	var errs []error
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		errs = append(errs, fmt.Errorf("tick_rate_hz %d out of range 1..1000", t.TickRateHz))
	}
	if t.MaxTileFood < 0 || t.MaxTileFood/1000 >= 255 {
		errs = append(errs, fmt.Errorf("max_tile_food %d out of range", t.MaxTileFood))
	}
	if t.PathMaxNodes < 0 {
		errs = append(errs, fmt.Errorf("path_max_nodes must be >= 0"))
	}
	switch t.Logic.Kind {
	case "", logic.KindNative:
	case logic.KindLua:
		if t.Logic.Script == "" {
			errs = append(errs, errors.New("logic.script required for lua logic"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", logic.ErrUnknownKind, t.Logic.Kind))
	}
	if t.Transport.OutboxBytes < 0 {
		errs = append(errs, errors.New("transport.outbox_bytes must be >= 0"))
	}
	if t.Transport.AcceptRatePerSec < 0 || t.Transport.AcceptBurst < 0 {
		errs = append(errs, errors.New("transport accept limits must be >= 0"))
	}
	if t.Persistence.ExportEveryTicks < 0 {
		errs = append(errs, errors.New("persistence.export_every_ticks must be >= 0"))
	}
	return errors.Join(errs...)
}
