package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/protocol"
	"infond.dev/internal/sim/logic"
	"infond.dev/internal/sim/pathfind"
)

const (
	MinWorldSize = 10
	MaxWorldSize = 255
)

var (
	ErrInvalidWorldSize   = errors.New("world size invalid")
	ErrInvalidKoth        = errors.New("koth pos invalid")
	ErrNotReady           = errors.New("world not ready")
	ErrAlreadyInitialized = errors.New("world already initialized")
	ErrBadClient          = errors.New("client without id")
)

type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Client is a connected viewer. Send must not block; it reports false when
// the message was dropped.
type Client interface {
	ID() string
	Addr() string
	Send(m protocol.Message) bool
}

// World owns the tile grid, the food on it and the set of connected clients.
// Apart from State, Metrics and the request channels, its methods must be
// called from a single goroutine (normally Run).
type World struct {
	cfg    WorldConfig
	log    *log.Logger
	logic  logic.Provider
	rng    *rand.Rand
	finder *pathfind.Finder

	state atomic.Int32
	tick  atomic.Uint64
	g     *grid

	clients map[string]Client

	tickLogger   TickLogger
	snapshotSink chan<- snapshot.GridV1

	cur    tickStats
	totals totals

	join     chan JoinRequest
	leave    chan string
	admin    chan adminSnapshotReq
	stop     chan struct{}
	stopOnce sync.Once

	metrics atomic.Value
}

var _ logic.Host = (*World)(nil)

func New(cfg WorldConfig, provider logic.Provider, logger *log.Logger) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("nil logic provider")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:     cfg,
		log:     logger,
		logic:   provider,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		finder:  &pathfind.Finder{MaxNodes: cfg.PathMaxNodes},
		clients: map[string]Client{},
		join:    make(chan JoinRequest, 64),
		leave:   make(chan string, 64),
		admin:   make(chan adminSnapshotReq, 8),
		stop:    make(chan struct{}),
	}
	w.publishMetrics(0)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.GridV1) { w.snapshotSink = ch }

func (w *World) ID() string               { return w.cfg.ID }
func (w *World) Config() WorldConfig      { return w.cfg }
func (w *World) CurrentTick() uint64      { return w.tick.Load() }
func (w *World) State() State             { return State(w.state.Load()) }
func (w *World) ClientCount() int         { return len(w.clients) }
func (w *World) setState(s State)         { w.state.Store(int32(s)) }
func (w *World) ready() bool              { return w.State() == StateReady && w.g != nil }
func (w *World) Provider() logic.Provider { return w.logic }

// ValidateSetup checks the layout requested by the logic provider.
func ValidateSetup(s logic.Setup) error {
	if s.Width < MinWorldSize || s.Width > MaxWorldSize ||
		s.Height < MinWorldSize || s.Height > MaxWorldSize {
		return fmt.Errorf("%w: %d x %d", ErrInvalidWorldSize, s.Width, s.Height)
	}
	if s.KothX <= 0 || s.KothX >= s.Width-1 ||
		s.KothY <= 0 || s.KothY >= s.Height-1 {
		return fmt.Errorf("%w: %d, %d", ErrInvalidKoth, s.KothX, s.KothY)
	}
	return nil
}

// Init asks the provider for the world layout and builds the grid. Any error
// leaves the world uninitialized; callers treat it as a fatal configuration
// error.
func (w *World) Init() error {
	if w.State() != StateUninitialized {
		return ErrAlreadyInitialized
	}
	setup, err := w.logic.Init()
	if err != nil {
		return fmt.Errorf("world init: %w", err)
	}
	if err := ValidateSetup(setup); err != nil {
		return err
	}
	w.g = newGrid(setup, w.rng)
	w.cur = tickStats{}
	w.totals.food = 0
	w.setState(StateReady)
	w.log.Printf("world %s ready: %dx%d koth=%d,%d", w.cfg.ID, setup.Width, setup.Height, setup.KothX, setup.KothY)
	w.publishMetrics(0)
	return nil
}

// Tick runs the logic provider once. A provider error is logged and the tick
// otherwise treated as a no-op.
func (w *World) Tick() {
	if !w.ready() {
		return
	}
	start := time.Now()
	tick := w.tick.Load()
	if err := w.logic.Tick(w); err != nil {
		w.log.Printf("error calling world tick %d: %v", tick, err)
		w.cur.err = err.Error()
		w.totals.tickErrors++
	}
	stepMS := float64(time.Since(start).Microseconds()) / 1000.0
	w.flushTick(tick, stepMS)
	next := w.tick.Add(1)
	if n := w.cfg.ExportEveryTicks; n > 0 && next%uint64(n) == 0 {
		if err := w.exportToSink(); err != nil {
			w.log.Printf("grid export at tick %d: %v", next, err)
		}
	}
	w.publishMetrics(stepMS)
}

// Shutdown drops all clients and releases the grid. It is a no-op when the
// world is not initialized.
func (w *World) Shutdown() {
	if w.State() == StateUninitialized {
		return
	}
	w.setState(StateShuttingDown)
	for id := range w.clients {
		delete(w.clients, id)
	}
	if w.g != nil {
		w.g.release()
		w.g = nil
	}
	w.cur = tickStats{}
	w.setState(StateUninitialized)
	w.log.Printf("world %s shut down at tick %d", w.cfg.ID, w.tick.Load())
	w.publishMetrics(0)
}
