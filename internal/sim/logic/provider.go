// Package logic hosts the game rules that drive the world. A Provider reports
// the world layout once at startup and is invoked once per tick; during a tick
// it mutates the world only through Host.
package logic

import (
	"errors"
	"fmt"
	"strings"

	"infond.dev/internal/sim/pathfind"
)

// Setup is the world layout requested by a provider.
type Setup struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	KothX  int `json:"koth_x" yaml:"koth_x"`
	KothY  int `json:"koth_y" yaml:"koth_y"`
}

// Host is the world API available to game logic.
type Host interface {
	Dig(x, y int) bool
	AddFood(x, y, amount int) int
	EatFood(x, y, amount int) int
	Food(x, y int) int
	IsWalkable(x, y int) bool
	FindRandomWalkable() (x, y int)
	FindPath(x1, y1, x2, y2 int) ([]pathfind.Point, bool)
	Size() (w, h int)
	Koth() (x, y int)
}

type Provider interface {
	Init() (Setup, error)
	Tick(h Host) error
	Close() error
}

const (
	KindLua    = "lua"
	KindNative = "native"
)

var ErrUnknownKind = errors.New("unknown logic kind")

// Options selects and parameterizes a provider.
type Options struct {
	Kind   string
	Script string
	Native NativeConfig
	Seed   int64
}

// New builds the provider named by opts.Kind.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindLua:
		return NewLua(opts.Script)
	case KindNative, "":
		return NewNative(opts.Native, opts.Seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}
