package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/world"
)

// SQLiteIndex is a queryable read model of the tick log: per-tick stats,
// client sessions and grid exports. It is written from a single goroutine
// and never read back by the server.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick   atomic.Uint64
	dropExport atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqExport
)

type req struct {
	kind reqKind

	tick   world.TickLogEntry
	export exportRow
}

type exportRow struct {
	Tick      uint64
	Path      string
	WorldID   string
	Width     int
	Height    int
	Walkable  int
	FoodTotal int64
	Digest    string
}

type Stats struct {
	QueueDepth      int    `json:"queue_depth"`
	QueueCapacity   int    `json:"queue_capacity"`
	DropTickTotal   uint64 `json:"drop_tick_total"`
	DropExportTotal uint64 `json:"drop_export_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			clients INTEGER NOT NULL,
			changes INTEGER NOT NULL,
			digs INTEGER NOT NULL,
			food_added INTEGER NOT NULL,
			food_eaten INTEGER NOT NULL,
			broadcasts INTEGER NOT NULL,
			error TEXT,
			step_ms REAL NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			client_id TEXT PRIMARY KEY,
			addr TEXT NOT NULL,
			joined_tick INTEGER NOT NULL,
			left_tick INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_joined ON sessions(joined_tick);`,
		`CREATE TABLE IF NOT EXISTS grid_exports (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			world_id TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			walkable INTEGER NOT NULL,
			food_total INTEGER NOT NULL,
			digest TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
		DropTickTotal:   s.dropTick.Load(),
		DropExportTotal: s.dropExport.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

// RecordExport indexes a grid export written to path.
func (s *SQLiteIndex) RecordExport(path string, g snapshot.GridV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := exportRow{
		Tick:    g.Header.Tick,
		Path:    path,
		WorldID: g.Header.WorldID,
		Width:   g.Width,
		Height:  g.Height,
		Digest:  snapshot.Digest(g),
	}
	for i := range g.Walkable {
		if g.Walkable[i] {
			r.Walkable++
		}
		r.FoodTotal += int64(g.Food[i])
	}
	select {
	case s.ch <- req{kind: reqExport, export: r}:
	default:
		s.dropExport.Add(1)
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,clients,changes,digs,food_added,food_eaten,broadcasts,error,step_ms,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertJoin, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(client_id,addr,joined_tick,left_tick) VALUES(?,?,?,NULL)`)
	updateLeave, _ := s.db.Prepare(`UPDATE sessions SET left_tick=? WHERE client_id=? AND left_tick IS NULL`)
	insertExport, _ := s.db.Prepare(`INSERT OR REPLACE INTO grid_exports(tick,path,world_id,width,height,walkable,food_total,digest,recorded_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertJoin, updateLeave, insertExport} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			var errStr any
			if e.Error != "" {
				errStr = e.Error
			}
			if !exec(insertTick, int64(e.Tick), e.Clients, len(e.Changes), e.Digs, e.FoodAdded, e.FoodEaten, e.Broadcasts, errStr, e.StepMS, string(b)) {
				continue
			}
			for _, j := range e.Joins {
				if !exec(insertJoin, j.ClientID, j.Addr, int64(e.Tick)) {
					break
				}
			}
			for _, id := range e.Leaves {
				if !exec(updateLeave, int64(e.Tick), id) {
					break
				}
			}

		case reqExport:
			x := r.export
			exec(insertExport, int64(x.Tick), x.Path, x.WorldID, x.Width, x.Height, x.Walkable, x.FoodTotal, x.Digest,
				time.Now().UTC().Format(time.RFC3339Nano))
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
