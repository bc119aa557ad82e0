package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/trace"
)

// printInputSummary echoes the configuration point about to be simulated.
func printInputSummary(w io.Writer, cfg sim.Config) {
	topo := cfg.Topology
	chunk := uint64(cfg.Simulation.ChunkSizeMB) * humanize.MiByte
	fmt.Fprintln(w, "=== Input ===")
	fmt.Fprintf(w, "Code\t%s\n", cfg.Code)
	fmt.Fprintf(w, "Topology\t%d racks x %d nodes x %d disks = %s disks\n",
		topo.Racks, topo.NodesPerRack, topo.DisksPerNode, humanize.Comma(int64(topo.Disks())))
	fmt.Fprintf(w, "Capacity per disk\t%s\n", humanize.IBytes(uint64(topo.CapacityPerDiskMB)*humanize.MiByte))
	fmt.Fprintf(w, "Stripes\t%s of %s chunks (%s stored)\n",
		humanize.Comma(cfg.NumStripes()), humanize.IBytes(chunk), humanize.IBytes(uint64(cfg.TotalChunks())*chunk))
	fmt.Fprintf(w, "Bandwidth\t%.0f MB/s cross-rack, %.0f MB/s intra-rack\n", cfg.Network.CrossRackMBps, cfg.Network.IntraRackMBps)
	if cfg.Failures.UsesTrace() {
		fmt.Fprintf(w, "Failures\ttrace %s (replay period %.0f h)\n", cfg.Failures.TraceFile, cfg.Failures.Period())
	} else {
		fmt.Fprintf(w, "Failures\t%s shape=%g scale=%g rate=%g\n",
			cfg.Failures.Distribution, cfg.Failures.Shape, cfg.Failures.Scale, cfg.Failures.Rate)
	}
	if cfg.Repair.Policy == sim.RepairLazy {
		fmt.Fprintf(w, "Repair\tlazy, threshold %d\n", cfg.Repair.Threshold)
	} else {
		fmt.Fprintf(w, "Repair\t%s\n", cfg.Repair.Policy)
	}
	fmt.Fprintf(w, "Mission\t%s h\n", humanize.FormatFloat("#,###.", cfg.Simulation.MissionHours))
	fmt.Fprintf(w, "Iterations\t%s (seed %d)\n", humanize.Comma(int64(cfg.Simulation.Iterations)), cfg.Simulation.Seed)
}

// printTraceSummary prints the repair activity aggregated over all missions.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace ===")
	fmt.Fprintf(w, "Repair waves\t%s\n", humanize.Comma(int64(s.Repairs)))
	for _, mode := range []string{"eager", "lazy", "followup"} {
		if n := s.RepairsByMode[mode]; n > 0 {
			fmt.Fprintf(w, "  %s\t%s\n", mode, humanize.Comma(int64(n)))
		}
	}
	fmt.Fprintf(w, "Cross-rack chunks\t%s\n", humanize.FormatFloat("#,###.", s.TotalDownload))
	fmt.Fprintf(w, "Repair duration\tmean %.3f h, max %.3f h\n", s.MeanDuration, s.MaxDuration)
	fmt.Fprintf(w, "Waited requests\t%s\n", humanize.Comma(int64(s.WaitedRequests)))
	if s.EventBatches > 0 {
		fmt.Fprintf(w, "Event batches\t%s\n", humanize.Comma(int64(s.EventBatches)))
	}
}
