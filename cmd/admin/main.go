package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"infond.dev/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "grid":
			gridCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints world ids, or the runs of one world (oldest first).
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}
	names, err := listDirs(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func gridCmd(args []string) {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used when no path is given)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing grid path or -world")
			os.Exit(2)
		}
		run, err := latestRun(filepath.Join(*dataDir, "worlds", *worldID))
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest run:", err)
			os.Exit(1)
		}
		path, err = latestGrid(run)
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest grid:", err)
			os.Exit(1)
		}
	}

	g, err := snapshot.ReadGrid(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read grid:", err)
		os.Exit(1)
	}
	printJSON(summarizeGrid(path, g))
}

type gridSummary struct {
	Path      string `json:"path"`
	WorldID   string `json:"world_id"`
	Tick      uint64 `json:"tick"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	KothX     int    `json:"koth_x"`
	KothY     int    `json:"koth_y"`
	Walkable  int    `json:"walkable"`
	FoodTiles int    `json:"food_tiles"`
	FoodTotal int64  `json:"food_total"`
	Digest    string `json:"digest"`
}

func summarizeGrid(path string, g snapshot.GridV1) gridSummary {
	s := gridSummary{
		Path:    path,
		WorldID: g.Header.WorldID,
		Tick:    g.Header.Tick,
		Width:   g.Width,
		Height:  g.Height,
		KothX:   g.KothX,
		KothY:   g.KothY,
		Digest:  snapshot.Digest(g),
	}
	for i := range g.Walkable {
		if g.Walkable[i] {
			s.Walkable++
		}
	}
	for _, f := range g.Food {
		if f > 0 {
			s.FoodTiles++
			s.FoodTotal += int64(f)
		}
	}
	return s
}

func listDirs(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// latestRun returns the newest run directory of a world. Run names are
// UTC timestamps, so lexical order is chronological.
func latestRun(worldDir string) (string, error) {
	runs, err := listDirs(worldDir)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs under %s", worldDir)
	}
	return filepath.Join(worldDir, runs[len(runs)-1]), nil
}

func latestGrid(runDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(runDir, "grids", "*.grid.zst"))
	if err != nil {
		return "", err
	}
	var best string
	var bestTick uint64
	for _, m := range matches {
		var tick uint64
		if _, err := fmt.Sscanf(filepath.Base(m), "%d.grid.zst", &tick); err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			best, bestTick = m, tick
		}
	}
	if best == "" {
		return "", fmt.Errorf("no grid exports under %s", runDir)
	}
	return best, nil
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
