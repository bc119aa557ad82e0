package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ecsim/ecsim/sim/placement"
	"github.com/ecsim/ecsim/sim/report"
	"github.com/ecsim/ecsim/sim/runner"
	"github.com/ecsim/ecsim/sim/workload"
)

// sweepRange selects meta rows [start, end]; end < 0 means through the last row.
type sweepRange struct {
	start int
	end   int
}

func (r sweepRange) contains(idx int) bool {
	return idx >= r.start && (r.end < 0 || idx <= r.end)
}

// runSweep simulates fc once per selected topology row. Rows without
// recorded failures or with fewer racks than chunks per stripe are skipped.
// A row whose configuration or trace is unusable is logged and skipped; a
// cancelled context or an unwritable results file stops the sweep.
//
// tracePattern, when set, names each row's failure trace and is formatted
// with the row's disks per node and nodes per rack.
func runSweep(ctx context.Context, fc FileConfig, rows []workload.TopologyMeta, rng sweepRange,
	tracePattern string, reg prometheus.Registerer, w io.Writer) (int, error) {
	var metrics *runner.Metrics
	if reg != nil {
		metrics = runner.NewMetrics(reg)
	}
	done := 0
	for idx, row := range rows {
		if !rng.contains(idx) {
			continue
		}
		if row.Failures == 0 {
			logrus.Infof("sweep row %d: no recorded failures, skipped", idx)
			continue
		}
		if row.Racks < fc.Code.N {
			logrus.Infof("sweep row %d: %d racks cannot hold %s, skipped", idx, row.Racks, fc.Code)
			continue
		}

		cfg := fc.Config
		cfg.Topology.Topology = placement.Topology{
			Racks:        row.Racks,
			NodesPerRack: row.NodesPerRack,
			DisksPerNode: row.DisksPerNode,
		}
		cfg.Simulation.Stripes = 0
		if row.Iterations > 0 {
			cfg.Simulation.Iterations = row.Iterations
		}
		if tracePattern != "" {
			cfg.Failures.TraceFile = fmt.Sprintf(tracePattern, row.DisksPerNode, row.NodesPerRack)
		}

		failureTrace, err := loadFailureTrace(cfg)
		if err != nil {
			logrus.Errorf("sweep row %d: %v", idx, err)
			continue
		}
		r, err := runner.New(cfg, failureTrace, runner.Options{Metrics: metrics})
		if err != nil {
			logrus.Errorf("sweep row %d: invalid configuration: %v", idx, err)
			continue
		}
		totals, err := r.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			logrus.Errorf("sweep row %d: %v", idx, err)
			continue
		}

		summary := report.Summarize(totals, cfg.TotalChunks(), fc.Output.Confidence)
		point := report.Point{
			DisksPerNode: row.DisksPerNode,
			NodesPerRack: row.NodesPerRack,
			Racks:        row.Racks,
			TotalDisks:   row.TotalDisks,
			Failures:     row.Failures,
		}
		fmt.Fprintf(w, "d%dn%dr%d\tPDL %.6f\tRE %.6f\tNOMDL %e\n",
			row.DisksPerNode, row.NodesPerRack, row.Racks, summary.PDL, summary.RE, summary.NOMDL)
		if fc.Output.Results != "" {
			if err := report.AppendCSV(fc.Output.Results, point, summary); err != nil {
				return done, err
			}
		}
		done++
	}
	return done, nil
}
