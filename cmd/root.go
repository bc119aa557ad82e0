package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/workload"
)

var (
	// Shared flags
	configPath  string // YAML configuration file
	logLevel    string // Log verbosity level
	metricsAddr string // Address of the Prometheus /metrics endpoint

	// Overrides of the configuration file, applied only when set
	seed          int64   // Master seed of the run
	iterations    int     // Missions per configuration point
	workers       int     // Parallel workers (0 = one per CPU)
	missionHours  float64 // Mission length in hours
	codeType      string  // rep, rs, lrc or drc
	codeN         int     // Chunks per stripe
	codeK         int     // Data chunks per stripe
	codeL         int     // LRC local groups
	racks         int     // Racks in the cluster
	nodesPerRack  int     // Nodes per rack
	disksPerNode  int     // Disks per node
	stripes       int64   // Stripe count (0 = derived from capacity)
	chunkSizeMB   int64   // Chunk size in MB
	repairPolicy  string  // eager or lazy
	lazyThreshold int     // Bad chunks before a lazy stripe is repaired
	failureTrace  string  // Failure trace CSV
	outputFormat  string  // text or json
	traceLevel    string  // none, repairs or events
	confidence    float64 // Confidence level of the relative error

	// Sweep flags
	metaPath     string // Topology meta CSV
	tracePattern string // Per-topology trace file pattern
	startIdx     int    // First meta row
	endIdx       int    // Last meta row (-1 = all)
	resultsPath  string // Results CSV
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ecsim",
	Short: "Monte-Carlo reliability simulator for erasure-coded storage",
}

// runCmd simulates a single configuration point
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate the probability of data loss for one configuration",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		fc := mustLoadConfig(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var registerer prometheus.Registerer
		if fc.Output.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			srv := serveMetrics(fc.Output.MetricsAddr, reg)
			defer shutdown(srv.Shutdown)
			registerer = reg
		}

		if _, err := runPoint(ctx, fc, registerer, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// sweepCmd simulates every topology of a meta file and appends results to a CSV
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the configuration over every topology row of a meta file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		fc := mustLoadConfig(cmd)
		if cmd.Flags().Changed("results") {
			fc.Output.Results = resultsPath
		}
		if metaPath == "" {
			logrus.Fatalf("--meta is required")
		}
		rows, err := workload.ReadTopologyMeta(metaPath)
		if err != nil {
			logrus.Fatalf("Failed to read meta file: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var registerer prometheus.Registerer
		if fc.Output.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			srv := serveMetrics(fc.Output.MetricsAddr, reg)
			defer shutdown(srv.Shutdown)
			registerer = reg
		}

		done, err := runSweep(ctx, fc, rows, sweepRange{start: startIdx, end: endIdx}, tracePattern, registerer, os.Stdout)
		if err != nil {
			logrus.Fatalf("Sweep stopped after %d points: %v", done, err)
		}
		logrus.Infof("Sweep complete: %d of %d rows simulated.", done, len(rows))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func mustLoadConfig(cmd *cobra.Command) FileConfig {
	fc, err := loadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := applyFlags(cmd, &fc); err != nil {
		logrus.Fatalf("Invalid flag: %v", err)
	}
	if err := fc.validateOutput(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return fc
}

func shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logrus.Warnf("metrics server shutdown: %v", err)
	}
}

// applyFlags overrides file values with flags the user set explicitly, so
// that flag defaults never clobber the configuration file.
func applyFlags(cmd *cobra.Command, fc *FileConfig) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		fc.Simulation.Seed = seed
	}
	if flags.Changed("iterations") {
		fc.Simulation.Iterations = iterations
	}
	if flags.Changed("workers") {
		fc.Simulation.Workers = workers
	}
	if flags.Changed("mission") {
		fc.Simulation.MissionHours = missionHours
	}
	if flags.Changed("code") {
		t, err := code.ParseType(codeType)
		if err != nil {
			return err
		}
		fc.Code.Type = t
	}
	if flags.Changed("n") {
		fc.Code.N = codeN
	}
	if flags.Changed("k") {
		fc.Code.K = codeK
	}
	if flags.Changed("l") {
		fc.Code.L = codeL
	}
	if flags.Changed("racks") {
		fc.Topology.Racks = racks
	}
	if flags.Changed("nodes-per-rack") {
		fc.Topology.NodesPerRack = nodesPerRack
	}
	if flags.Changed("disks-per-node") {
		fc.Topology.DisksPerNode = disksPerNode
	}
	if flags.Changed("stripes") {
		fc.Simulation.Stripes = stripes
	}
	if flags.Changed("chunk-size") {
		fc.Simulation.ChunkSizeMB = chunkSizeMB
	}
	if flags.Changed("policy") {
		fc.Repair.Policy = sim.RepairPolicy(repairPolicy)
	}
	if flags.Changed("lazy-threshold") {
		fc.Repair.Threshold = lazyThreshold
	}
	if flags.Changed("failure-trace") {
		fc.Failures.TraceFile = failureTrace
	}
	if flags.Changed("output") {
		fc.Output.Format = outputFormat
	}
	if flags.Changed("trace-level") {
		fc.Output.TraceLevel = traceLevel
	}
	if flags.Changed("confidence") {
		fc.Output.Confidence = confidence
	}
	if flags.Changed("metrics-addr") {
		fc.Output.MetricsAddr = metricsAddr
	}
	return nil
}

// registerSimulationFlags adds the configuration overrides shared by run and sweep.
func registerSimulationFlags(cmd *cobra.Command) {
	defaults := defaultFileConfig()

	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (defaults are used when omitted)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :9090)")

	cmd.Flags().Int64Var(&seed, "seed", defaults.Simulation.Seed, "Master seed of the run")
	cmd.Flags().IntVar(&iterations, "iterations", defaults.Simulation.Iterations, "Missions to simulate")
	cmd.Flags().IntVar(&workers, "workers", defaults.Simulation.Workers, "Parallel workers (0 = one per CPU)")
	cmd.Flags().Float64Var(&missionHours, "mission", defaults.Simulation.MissionHours, "Mission length in hours")
	cmd.Flags().StringVar(&codeType, "code", defaults.Code.Type.String(), "Code type (rep, rs, lrc, drc)")
	cmd.Flags().IntVar(&codeN, "n", defaults.Code.N, "Chunks per stripe")
	cmd.Flags().IntVar(&codeK, "k", defaults.Code.K, "Data chunks per stripe")
	cmd.Flags().IntVar(&codeL, "l", defaults.Code.L, "Local groups (lrc only)")
	cmd.Flags().IntVar(&racks, "racks", defaults.Topology.Racks, "Racks in the cluster")
	cmd.Flags().IntVar(&nodesPerRack, "nodes-per-rack", defaults.Topology.NodesPerRack, "Nodes per rack")
	cmd.Flags().IntVar(&disksPerNode, "disks-per-node", defaults.Topology.DisksPerNode, "Disks per node")
	cmd.Flags().Int64Var(&stripes, "stripes", 0, "Stripe count (0 = derived from disk capacity)")
	cmd.Flags().Int64Var(&chunkSizeMB, "chunk-size", defaults.Simulation.ChunkSizeMB, "Chunk size in MB")
	cmd.Flags().StringVar(&repairPolicy, "policy", string(defaults.Repair.Policy), "Repair policy (eager, lazy)")
	cmd.Flags().IntVar(&lazyThreshold, "lazy-threshold", defaults.Repair.Threshold, "Bad chunks before a lazy stripe is repaired")
	cmd.Flags().StringVar(&failureTrace, "failure-trace", "", "Failure trace CSV (disk_total_id,fail_time) replacing the failure distribution")
	cmd.Flags().StringVar(&outputFormat, "output", defaults.Output.Format, "Result format (text, json)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", defaults.Output.TraceLevel, "Per-mission trace (none, repairs, events)")
	cmd.Flags().Float64Var(&confidence, "confidence", defaults.Output.Confidence, "Confidence level of the relative error")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimulationFlags(runCmd)
	registerSimulationFlags(sweepCmd)

	sweepCmd.Flags().StringVar(&metaPath, "meta", "", "Topology meta CSV (#disks/node,#nodes/rack,#racks,#total disks,#failures)")
	sweepCmd.Flags().StringVar(&tracePattern, "trace-pattern", "", "Per-topology failure trace, formatted with disks/node and nodes/rack (e.g. clusters/d%dn%d.csv)")
	sweepCmd.Flags().IntVar(&startIdx, "start", 0, "First meta row to simulate")
	sweepCmd.Flags().IntVar(&endIdx, "end", -1, "Last meta row to simulate (-1 = all)")
	sweepCmd.Flags().StringVar(&resultsPath, "results", "", "Results CSV, appended to")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
