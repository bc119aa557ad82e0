package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/placement"
	"github.com/ecsim/ecsim/sim/workload"
)

// lineConfig is three single-disk racks holding four 3-way replicated
// stripes, so every stripe has a chunk on every disk. Failures come only from
// injection. With 900 MB chunks and 1 MB/s of cross-rack bandwidth, one
// chunk of download takes 0.25 h.
func lineConfig(policy RepairPolicy) Config {
	cfg := DefaultConfig()
	cfg.Topology.Topology = placement.Topology{Racks: 3, NodesPerRack: 1, DisksPerNode: 1}
	cfg.Code = code.Params{Type: code.TypeReplication, N: 3, K: 1}
	cfg.Network = NetworkConfig{CrossRackMBps: 1, IntraRackMBps: 1}
	cfg.Failures = workload.FailureSpec{TraceFile: "injected.csv"}
	cfg.Repair = RepairConfig{Policy: policy, Threshold: 2}
	cfg.Simulation.MissionHours = 100
	cfg.Simulation.Iterations = 1
	cfg.Simulation.ChunkSizeMB = 900
	cfg.Simulation.Stripes = 4
	return cfg
}

// newLineSimulator builds and resets a simulator for cfg with an empty
// failure trace.
func newLineSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, []workload.FailureEntry{})
	require.NoError(t, err)
	require.NoError(t, s.Reset(1))
	return s
}

// synthConfig is a small cluster with a failure rate high enough that most
// disks fail during the mission.
func synthConfig() Config {
	cfg := DefaultConfig()
	cfg.Topology.Topology = placement.Topology{Racks: 10, NodesPerRack: 2, DisksPerNode: 2}
	cfg.Code = code.Params{Type: code.TypeRS, N: 6, K: 4}
	cfg.Failures = workload.FailureSpec{Distribution: workload.DistExponential, Rate: 0.001}
	cfg.Simulation.MissionHours = 1000
	cfg.Simulation.Iterations = 5
	cfg.Simulation.Stripes = 200
	return cfg
}
