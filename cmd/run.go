package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/report"
	"github.com/ecsim/ecsim/sim/runner"
	"github.com/ecsim/ecsim/sim/trace"
	"github.com/ecsim/ecsim/sim/workload"
)

// loadFailureTrace reads the configured trace, or returns nil when failures
// are sampled from a distribution.
func loadFailureTrace(cfg sim.Config) ([]workload.FailureEntry, error) {
	if !cfg.Failures.UsesTrace() {
		return nil, nil
	}
	return workload.LoadFailureTrace(cfg.Failures, cfg.Simulation.MissionHours)
}

// runPoint simulates one configuration point and writes its results to w.
// Collectors are registered on reg when it is non-nil.
func runPoint(ctx context.Context, fc FileConfig, reg prometheus.Registerer, w io.Writer) (report.Summary, error) {
	failureTrace, err := loadFailureTrace(fc.Config)
	if err != nil {
		return report.Summary{}, err
	}

	opts := runner.Options{TraceLevel: trace.TraceLevel(fc.Output.TraceLevel)}
	if reg != nil {
		opts.Metrics = runner.NewMetrics(reg)
	}
	traced := opts.TraceLevel != "" && opts.TraceLevel != trace.TraceLevelNone
	var mu sync.Mutex
	traceTotal := trace.Summarize(nil)
	if traced {
		opts.Observe = func(_ int, _ sim.IterationResult, st *trace.SimulationTrace) {
			s := trace.Summarize(st)
			mu.Lock()
			defer mu.Unlock()
			traceTotal.Merge(s)
		}
	}

	r, err := runner.New(fc.Config, failureTrace, opts)
	if err != nil {
		return report.Summary{}, err
	}
	if fc.Output.Format == "text" {
		printInputSummary(w, fc.Config)
	}

	start := time.Now()
	totals, err := r.Run(ctx)
	if err != nil {
		return report.Summary{}, err
	}
	logrus.Infof("simulation of %d missions took %s", totals.Missions, time.Since(start).Round(time.Millisecond))

	summary := report.Summarize(totals, fc.Config.TotalChunks(), fc.Output.Confidence)
	switch fc.Output.Format {
	case "json":
		err = report.WriteJSON(w, summary)
	default:
		fmt.Fprintln(w, "=== Results ===")
		err = report.WriteText(w, summary, fc.Config.Simulation.ChunkSizeMB)
		if err == nil && traced {
			printTraceSummary(w, traceTotal)
		}
	}
	return summary, err
}
