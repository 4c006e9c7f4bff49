package main

import (
	"flag"
	"fmt"
	"os"

	persistlog "infond.dev/internal/persistence/log"
	"infond.dev/internal/persistence/snapshot"
	"infond.dev/internal/sim/world"
)

func main() {
	var (
		gridPath = flag.String("grid", "", "path to a .grid.zst export")
		ticksDir = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop after tick (inclusive, optional)")
		against  = flag.String("against", "", "grid export to compare the result with (optional)")
	)
	flag.Parse()

	if *gridPath == "" {
		fmt.Fprintln(os.Stderr, "missing -grid")
		os.Exit(2)
	}

	g, err := snapshot.ReadGrid(*gridPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read grid:", err)
		os.Exit(1)
	}
	fmt.Printf("grid v%d world=%s tick=%d size=%dx%d koth=%d,%d digest=%s\n",
		g.Header.Version, g.Header.WorldID, g.Header.Tick, g.Width, g.Height, g.KothX, g.KothY, snapshot.Digest(g))

	if *ticksDir == "" {
		return
	}
	res, err := replay(&g, *ticksDir, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	digest := snapshot.Digest(g)
	fmt.Printf("replayed ticks=%d changes=%d last_tick=%d digest=%s\n", res.Ticks, res.Changes, res.LastTick, digest)

	if *against == "" {
		return
	}
	ref, err := snapshot.ReadGrid(*against)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read reference grid:", err)
		os.Exit(1)
	}
	if want := snapshot.Digest(ref); want != digest {
		fmt.Fprintf(os.Stderr, "digest mismatch: replayed=%s reference(tick %d)=%s\n", digest, ref.Header.Tick, want)
		os.Exit(1)
	}
	fmt.Println("OK")
}

type result struct {
	Ticks    int
	Changes  int
	LastTick uint64
}

// replay applies every logged tile change from g's tick onwards, up to
// toTick when it is non-zero.
func replay(g *snapshot.GridV1, dir string, toTick uint64) (result, error) {
	var res result
	err := persistlog.ReadTicks(dir, func(e world.TickLogEntry) error {
		if e.Tick < g.Header.Tick || (toTick != 0 && e.Tick > toTick) {
			return nil
		}
		for _, c := range e.Changes {
			if !g.Apply(c.X, c.Y, c.Sprite, c.Food, c.Walkable) {
				return fmt.Errorf("tick %d: change off grid at %d,%d", e.Tick, c.X, c.Y)
			}
			res.Changes++
		}
		res.Ticks++
		res.LastTick = e.Tick
		return nil
	})
	if err != nil {
		return res, err
	}
	if res.Ticks > 0 {
		g.Header.Tick = res.LastTick + 1
	}
	return res, nil
}
