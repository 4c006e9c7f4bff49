package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "infond.dev/internal/persistence/log"
	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/logic"
	"infond.dev/internal/sim/tuning"
	"infond.dev/internal/sim/world"
	"infond.dev/internal/transport/observer"
	"infond.dev/internal/transport/tcp"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/server.yaml", "server config (yaml)")
		addr       = flag.String("addr", "", "http listen address (default: transport.http_listen)")
		tcpAddr    = flag.String("tcp", "", "game client listen address (default: transport.tcp_listen)")
		dataDir    = flag.String("data", "", "runtime data directory (default: persistence.data_dir)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		logicKind  = flag.String("logic", "", "logic provider: lua or native (default: logic.kind)")
		scriptPath = flag.String("script", "", "lua script (default: logic.script)")
		debug      = flag.Bool("debug", false, "log every dig")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", *configPath)
		tune = tuning.Defaults()
	}
	applyFlag(&tune.Transport.HTTPListen, *addr)
	applyFlag(&tune.Transport.TCPListen, *tcpAddr)
	applyFlag(&tune.Persistence.DataDir, *dataDir)
	applyFlag(&tune.Logic.Kind, *logicKind)
	applyFlag(&tune.Logic.Script, *scriptPath)
	if *debug {
		tune.Debug = true
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	provider, err := logic.New(logic.Options{
		Kind:   tune.Logic.Kind,
		Script: tune.Logic.Script,
		Native: tune.Logic.Native,
		Seed:   tune.Seed,
	})
	if err != nil {
		logger.Fatalf("logic: %v", err)
	}
	defer provider.Close()

	w, err := world.New(world.WorldConfig{
		ID:               tune.WorldID,
		TickRateHz:       tune.TickRateHz,
		Seed:             tune.Seed,
		MaxTileFood:      tune.MaxTileFood,
		PathMaxNodes:     tune.PathMaxNodes,
		ExportEveryTicks: tune.Persistence.ExportEveryTicks,
		Debug:            tune.Debug,
	}, provider, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if err := w.Init(); err != nil {
		logger.Fatalf("world init: %v", err)
	}

	// Every run gets its own directory; nothing is loaded back.
	runDir := filepath.Join(tune.Persistence.DataDir, "worlds", w.ID(), time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(runDir, *disableDB || !tune.Persistence.IndexDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	var tee persistlog.Tee
	if tune.Persistence.UpdateLog {
		tickLog := persistlog.NewTickLogger(runDir)
		defer tickLog.Close()
		tee = append(tee, tickLog)
	}
	if idx != nil {
		tee = append(tee, idx)
	}
	if len(tee) > 0 {
		w.SetTickLogger(tee)
	}

	writeExport := func(g snapshot.GridV1) {
		path := filepath.Join(runDir, "grids", fmt.Sprintf("%d.grid.zst", g.Header.Tick))
		if err := snapshot.WriteGrid(path, g); err != nil {
			logger.Printf("grid export: %v", err)
			return
		}
		if idx != nil {
			idx.RecordExport(path, g)
		}
	}
	// The base for replays: the grid as the logic provider first sees it.
	writeExport(w.ExportGrid())

	ctx, cancel := signalContext()
	defer cancel()

	// Grid export writer.
	snapCh := make(chan snapshot.GridV1, 2)
	w.SetSnapshotSink(snapCh)
	exportDone := make(chan struct{})
	go func() {
		defer close(exportDone)
		for {
			select {
			case <-ctx.Done():
				return
			case g := <-snapCh:
				writeExport(g)
			}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	tcpSrv := tcp.NewServer(w, logger, tcp.Options{
		OutboxBytes:      tune.Transport.OutboxBytes,
		AcceptRatePerSec: tune.Transport.AcceptRatePerSec,
		AcceptBurst:      tune.Transport.AcceptBurst,
	})
	tcpDone := make(chan struct{})
	go func() {
		defer close(tcpDone)
		if err := tcpSrv.ListenAndServe(ctx, tune.Transport.TCPListen); err != nil {
			logger.Printf("tcp: %v", err)
			cancel()
		}
	}()

	obsSrv := observer.NewServer(w, logger, observer.Options{
		OutboxBytes: tune.Transport.OutboxBytes,
		AllowRemote: tune.Transport.ObserverAllowRemote,
	})
	enableAdminHTTP := envBool("KOTH_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	if !enableAdminHTTP {
		logger.Printf("admin endpoints disabled (KOTH_ENABLE_ADMIN_HTTP=false)")
	}
	srv := &http.Server{
		Addr: tune.Transport.HTTPListen,
		Handler: buildMux(muxDeps{
			world:    w,
			observer: obsSrv,
			index:    idx,
			admin:    enableAdminHTTP,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("http listening on %s", tune.Transport.HTTPListen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}

	<-ctx.Done()
	<-runDone
	<-tcpDone
	<-exportDone

	// The loop has stopped; this goroutine owns the world now.
	writeExport(w.ExportGrid())
	logger.Printf("final state digest %s", w.StateDigest())
	w.Shutdown()
}

func applyFlag(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
