package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chronoframe/chronos/actor"
	"github.com/chronoframe/chronos/cache"
	"github.com/chronoframe/chronos/eventlog"
	"github.com/chronoframe/chronos/history"
	"github.com/chronoframe/chronos/telemetry"
	"github.com/chronoframe/chronos/universe"
)

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	numActors := fs.Int("actors", 5, "Number of relay actors in the chain")
	deadline := fs.Int64("deadline", 1000, "Time to advance the universe to")
	concurrency := fs.Int64("concurrency", 4, "Maximum actor tasks in flight at once")
	delay := fs.Int64("delay", 1, "Propagation delay between relay hops")
	eventlogPath := fs.String("eventlog", "", "Append a JSONL audit trail of committed events to this file")
	quiet := fs.Bool("quiet", false, "Discard console diagnostics")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: chronosim run [options]

Builds a chain of actors, fires one pulse at the head, and advances the
universe until every relay has fired and the system goes quiet.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  chronosim run --actors 10 --deadline 500
  chronosim run --actors 3 --eventlog out.jsonl --quiet
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *numActors < 1 {
		fs.Usage()
		return fmt.Errorf("--actors must be at least 1")
	}

	log := telemetry.Discard()
	if !*quiet {
		log = telemetry.NewConsole()
	}

	var trail *eventlog.Trail
	if *eventlogPath != "" {
		t, err := eventlog.Open(*eventlogPath)
		if err != nil {
			return fmt.Errorf("open eventlog: %w", err)
		}
		defer t.Close()
		trail = t
	}

	u := universe.NewWithLogger[int](log)
	receptions := cache.NewReceptionCache(1024)

	chain := make([]*actor.Actor[int], *numActors)
	for i := range chain {
		chain[i] = actor.NewActor[int](0, history.Some(0))
		chain[i].SetReceptionCache(receptions)
		if trail != nil {
			chain[i].SetCommitHook(func(e *actor.Event[int]) {
				_ = trail.Record(eventlog.FromEvent(e))
			})
		}
		u.Add(chain[i])
	}
	head := chain[0]
	seed := newRelaySignal(nil, chain, 0, 0, 1, history.Duration(*delay))
	if err := head.AddSignalToReceive(seed); err != nil {
		return fmt.Errorf("seed head actor: %w", err)
	}

	executor := universe.NewBoundedExecutor(*concurrency)

	start := time.Now()
	err := <-u.AdvanceTo(context.Background(), history.Time(*deadline), executor)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("advance_to: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Simulation complete\n")
	fmt.Fprintf(os.Stderr, "  Actors:       %d\n", len(chain))
	fmt.Fprintf(os.Stderr, "  Deadline:     %d\n", *deadline)
	fmt.Fprintf(os.Stderr, "  Compute time: %s\n", elapsed)
	for i, a := range chain {
		v := a.GetStateHistory().LastValue()
		fmt.Fprintf(os.Stderr, "  actor[%d] = %v\n", i, v)
	}
	stats := receptions.Stats()
	fmt.Fprintf(os.Stderr, "  Reception cache: %d hits, %d misses, %.1f%% hit rate\n",
		stats.Hits, stats.Misses, stats.HitRate*100)

	return nil
}
