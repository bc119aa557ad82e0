// Package runner executes the missions of one configuration point across
// parallel workers and sums their results.
package runner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/trace"
	"github.com/ecsim/ecsim/sim/workload"
)

// ObserveFunc sees every finished mission. It is called from worker
// goroutines and must synchronize its own state. st is nil unless tracing
// is enabled, and is reused by the worker after the call returns.
type ObserveFunc func(worker int, r sim.IterationResult, st *trace.SimulationTrace)

// Options tune a Runner. The zero value runs without metrics, tracing or
// observation.
type Options struct {
	Metrics    *Metrics
	TraceLevel trace.TraceLevel
	Observe    ObserveFunc
}

// Runner fans the iterations of one configuration out to worker goroutines.
// Each worker owns a Simulator seeded from its own stream of the run's
// SimulationKey, so results depend on the seed and the worker count only.
type Runner struct {
	cfg          sim.Config
	failureTrace []workload.FailureEntry
	workers      int
	opts         Options
}

// New validates cfg and resolves the worker count: cfg.Simulation.Workers,
// or one per CPU when zero, never more than the iteration count.
func New(cfg sim.Config, failureTrace []workload.FailureEntry, opts Options) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !trace.IsValidTraceLevel(string(opts.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", opts.TraceLevel)
	}
	workers := cfg.Simulation.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, cfg.Simulation.Iterations)
	return &Runner{cfg: cfg, failureTrace: failureTrace, workers: workers, opts: opts}, nil
}

// Workers is the number of goroutines Run starts.
func (r *Runner) Workers() int { return r.workers }

// Run executes every iteration and returns the summed totals. The first
// worker error cancels the others; the totals gathered so far are returned
// with it. ctx is checked between missions.
func (r *Runner) Run(ctx context.Context) (sim.Totals, error) {
	shares := split(r.cfg.Simulation.Iterations, r.workers)
	key := sim.NewSimulationKey(r.cfg.Simulation.Seed)
	partial := make([]sim.Totals, r.workers)

	logrus.Infof("runner: %d iterations of %s over %d workers", r.cfg.Simulation.Iterations, r.cfg.Code, r.workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range r.workers {
		g.Go(func() error {
			return r.work(gctx, w, key.Derive(sim.StreamWorker(w)), shares[w], &partial[w])
		})
	}
	err := g.Wait()

	var totals sim.Totals
	for _, t := range partial {
		totals.Merge(t)
	}
	if err != nil {
		return totals, err
	}
	logrus.Infof("runner: %d missions, %d with data loss", totals.Missions, totals.DataLoss)
	return totals, nil
}

func (r *Runner) work(ctx context.Context, worker int, seed int64, iterations int, totals *sim.Totals) error {
	s, err := sim.NewSimulator(r.cfg, r.failureTrace)
	if err != nil {
		return err
	}
	var st *trace.SimulationTrace
	if r.opts.TraceLevel != "" && r.opts.TraceLevel != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(r.opts.TraceLevel)
		s.SetTrace(st)
	}
	t, err := s.Run(ctx, seed, iterations, func(_ int, res sim.IterationResult) {
		if r.opts.Metrics != nil {
			r.opts.Metrics.Observe(res)
		}
		if r.opts.Observe != nil {
			r.opts.Observe(worker, res, st)
		}
	})
	*totals = t
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("worker %d: %w", worker, err)
	}
	logrus.Debugf("runner: worker %d finished %d iterations", worker, iterations)
	return nil
}

// split divides n iterations over workers, giving the remainder to the first
// workers.
func split(n, workers int) []int {
	shares := make([]int, workers)
	for w := range shares {
		shares[w] = n / workers
		if w < n%workers {
			shares[w]++
		}
	}
	return shares
}
