// Package sim orchestrates Monte Carlo balance runs: many independent
// dungeon trials played by personality-driven agents, aggregated into a
// balance report. Each trial draws from its own seeded random stream, so a
// run's report is bit-identical for a given seed no matter how many workers
// execute it.
package sim

import (
	"context"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aldenhart/dungeon-balance-go/internal/report"
)

var logger = log.New(log.Writer(), "[SIM] ", log.LstdFlags)

// Run executes cfg.Trials trials and returns the aggregated balance report.
// Trials are distributed across workers; the first trial error cancels the
// run and is returned.
func Run(ctx context.Context, cfg Config) (*report.Report, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Parallelism
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	start := time.Now()
	logger.Printf("run seed=%s trials=%d workers=%d cap=%d", cfg.Seed, cfg.Trials, workers, cfg.TurnCap)

	partials := make([]*report.Report, workers)
	var next atomic.Uint64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		part := report.New(cfg.Seed, int64(cfg.TurnCap))
		partials[w] = part
		g.Go(func() error {
			for {
				idx := next.Add(1) - 1
				if idx >= uint64(cfg.Trials) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				tr, err := runTrial(&cfg, idx)
				if err != nil {
					return err
				}
				part.Add(tr)
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := report.New(cfg.Seed, int64(cfg.TurnCap))
	for _, part := range partials {
		total.Merge(part)
	}
	total.Elapsed = time.Since(start)

	logger.Printf("run seed=%s done: %d trials, win rate %.1f%%, %s",
		cfg.Seed, total.Trials, total.WinRate()*100, total.Elapsed.Round(time.Millisecond))
	return total, nil
}
