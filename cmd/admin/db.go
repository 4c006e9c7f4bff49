package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db or -run)")
	runDir := fs.String("run", "", "run directory (optional; defaults to the latest run)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		dir := strings.TrimSpace(*runDir)
		if dir == "" {
			if strings.TrimSpace(*worldID) == "" {
				fmt.Fprintln(os.Stderr, "missing -world, -run or -db")
				os.Exit(2)
			}
			var err error
			dir, err = latestRun(filepath.Join(*dataDir, "worlds", *worldID))
			if err != nil {
				fmt.Fprintln(os.Stderr, "latest run:", err)
				os.Exit(1)
			}
		}
		path = filepath.Join(dir, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}
	if err := runQuery(db, q, *limit, printJSON); err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

type tickRow struct {
	Tick       uint64  `json:"tick"`
	Clients    int     `json:"clients"`
	Changes    int     `json:"changes"`
	Digs       int     `json:"digs"`
	FoodAdded  int64   `json:"food_added"`
	FoodEaten  int64   `json:"food_eaten"`
	Broadcasts int     `json:"broadcasts"`
	Error      string  `json:"error,omitempty"`
	StepMS     float64 `json:"step_ms"`
}

type sessionRow struct {
	ClientID   string  `json:"client_id"`
	Addr       string  `json:"addr"`
	JoinedTick uint64  `json:"joined_tick"`
	LeftTick   *uint64 `json:"left_tick,omitempty"`
}

type exportRow struct {
	Tick       uint64 `json:"tick"`
	Path       string `json:"path"`
	WorldID    string `json:"world_id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Walkable   int    `json:"walkable"`
	FoodTotal  int64  `json:"food_total"`
	Digest     string `json:"digest"`
	RecordedAt string `json:"recorded_at"`
}

// runQuery emits the rows of one named query, newest first.
func runQuery(db *sql.DB, q string, limit int, emit func(any)) error {
	switch q {
	case "ticks", "errors":
		where := ""
		if q == "errors" {
			where = "WHERE error IS NOT NULL AND error != ''"
		}
		rows, err := db.Query(`SELECT tick,clients,changes,digs,food_added,food_eaten,broadcasts,COALESCE(error,''),step_ms FROM ticks `+where+` ORDER BY tick DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r tickRow
			if err := rows.Scan(&r.Tick, &r.Clients, &r.Changes, &r.Digs, &r.FoodAdded, &r.FoodEaten, &r.Broadcasts, &r.Error, &r.StepMS); err != nil {
				return err
			}
			emit(r)
		}
		return rows.Err()

	case "sessions":
		rows, err := db.Query(`SELECT client_id,addr,joined_tick,left_tick FROM sessions ORDER BY joined_tick DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r sessionRow
			var left sql.NullInt64
			if err := rows.Scan(&r.ClientID, &r.Addr, &r.JoinedTick, &left); err != nil {
				return err
			}
			if left.Valid {
				v := uint64(left.Int64)
				r.LeftTick = &v
			}
			emit(r)
		}
		return rows.Err()

	case "exports":
		rows, err := db.Query(`SELECT tick,path,world_id,width,height,walkable,food_total,digest,recorded_at FROM grid_exports ORDER BY tick DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r exportRow
			if err := rows.Scan(&r.Tick, &r.Path, &r.WorldID, &r.Width, &r.Height, &r.Walkable, &r.FoodTotal, &r.Digest, &r.RecordedAt); err != nil {
				return err
			}
			emit(r)
		}
		return rows.Err()

	default:
		return fmt.Errorf("unknown query %q (want ticks, errors, sessions or exports)", q)
	}
}
