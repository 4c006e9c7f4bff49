package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"infond.dev/internal/persistence/indexdb"
	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	Close() error
	RecordExport(path string, g snapshot.GridV1)
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("KOTH_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported KOTH_INDEX_BACKEND: %s", backend)
	}
}
