package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/placement"
	"github.com/ecsim/ecsim/sim/workload"
)

// RepairPolicy selects how a failed disk is admitted for repair.
type RepairPolicy string

const (
	// RepairEager rebuilds every stripe of a failed disk immediately.
	RepairEager RepairPolicy = "eager"
	// RepairLazy defers a stripe until it has at least Threshold bad chunks.
	RepairLazy RepairPolicy = "lazy"
)

// Opposite returns the other policy. Disk replacements use it.
func (p RepairPolicy) Opposite() RepairPolicy {
	if p == RepairLazy {
		return RepairEager
	}
	return RepairLazy
}

// TopologyConfig is the cluster shape plus per-disk capacity.
type TopologyConfig struct {
	placement.Topology `yaml:",inline"`
	CapacityPerDiskMB  int64 `yaml:"capacity_per_disk_mb"`
}

// NetworkConfig sets the bandwidth pools in MB/s.
type NetworkConfig struct {
	CrossRackMBps float64 `yaml:"cross_rack_mbps"`
	IntraRackMBps float64 `yaml:"intra_rack_mbps"`
}

// RepairConfig groups repair policy selection.
type RepairConfig struct {
	Policy    RepairPolicy `yaml:"policy"`
	Threshold int          `yaml:"lazy_threshold"` // min bad chunks before a lazy stripe is repaired
}

// SimulationConfig groups the Monte-Carlo run parameters.
type SimulationConfig struct {
	MissionHours float64 `yaml:"mission_hours"`
	Iterations   int     `yaml:"iterations"`
	Workers      int     `yaml:"workers"` // 0 = one per CPU
	Seed         int64   `yaml:"seed"`
	ChunkSizeMB  int64   `yaml:"chunk_size_mb"`
	Stripes      int64   `yaml:"stripes"` // 0 = derived from capacity
}

// Config is everything one configuration point of the simulator needs.
type Config struct {
	Topology   TopologyConfig       `yaml:"topology"`
	Code       code.Params          `yaml:"code"`
	Network    NetworkConfig        `yaml:"network"`
	Failures   workload.FailureSpec `yaml:"failures"`
	Repair     RepairConfig         `yaml:"repair"`
	Simulation SimulationConfig     `yaml:"simulation"`
}

// DefaultConfig returns a ten-year RS(9,6) mission over 800 disks.
func DefaultConfig() Config {
	return Config{
		Topology: TopologyConfig{
			Topology:          placement.Topology{Racks: 20, NodesPerRack: 10, DisksPerNode: 4},
			CapacityPerDiskMB: 512 * 1024,
		},
		Code:     code.Params{Type: code.TypeRS, N: 9, K: 6},
		Network:  NetworkConfig{CrossRackMBps: 125, IntraRackMBps: 125},
		Failures: workload.DefaultFailureSpec(),
		Repair:   RepairConfig{Policy: RepairEager, Threshold: 2},
		Simulation: SimulationConfig{
			MissionHours: 87600,
			Iterations:   1000,
			Seed:         42,
			ChunkSizeMB:  256,
		},
	}
}

// NumStripes returns the configured stripe count, or derives one that fills
// half the raw capacity.
func (c Config) NumStripes() int64 {
	if c.Simulation.Stripes > 0 {
		return c.Simulation.Stripes
	}
	if c.Code.N <= 0 || c.Simulation.ChunkSizeMB <= 0 {
		return 0
	}
	disks := int64(c.Topology.Disks())
	return c.Topology.CapacityPerDiskMB * disks / int64(c.Code.N) / c.Simulation.ChunkSizeMB / 2
}

// TotalChunks is the number of chunks stored across all stripes.
func (c Config) TotalChunks() int64 {
	return c.NumStripes() * int64(c.Code.N)
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if _, err := code.New(c.Code); err != nil {
		return fmt.Errorf("code: %w", err)
	}
	if err := c.Topology.Validate(c.Code.N); err != nil {
		return fmt.Errorf("topology: %w", err)
	}
	if c.Topology.CapacityPerDiskMB <= 0 && c.Simulation.Stripes <= 0 {
		return errors.New("topology.capacity_per_disk_mb must be > 0 when simulation.stripes is not set")
	}
	if err := validatePositive("network.cross_rack_mbps", c.Network.CrossRackMBps); err != nil {
		return err
	}
	if err := validatePositive("network.intra_rack_mbps", c.Network.IntraRackMBps); err != nil {
		return err
	}
	if err := c.Failures.Validate(); err != nil {
		return fmt.Errorf("failures: %w", err)
	}
	switch c.Repair.Policy {
	case RepairEager:
	case RepairLazy:
		if c.Repair.Threshold < 1 {
			return fmt.Errorf("repair.lazy_threshold must be >= 1, got %d", c.Repair.Threshold)
		}
	default:
		return fmt.Errorf("repair.policy must be %q or %q, got %q", RepairEager, RepairLazy, c.Repair.Policy)
	}
	if math.IsNaN(c.Simulation.MissionHours) || c.Simulation.MissionHours < 0 {
		return fmt.Errorf("simulation.mission_hours must be >= 0, got %v", c.Simulation.MissionHours)
	}
	if c.Simulation.Iterations < 1 {
		return fmt.Errorf("simulation.iterations must be >= 1, got %d", c.Simulation.Iterations)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must be >= 0, got %d", c.Simulation.Workers)
	}
	if c.Simulation.ChunkSizeMB <= 0 {
		return fmt.Errorf("simulation.chunk_size_mb must be > 0, got %d", c.Simulation.ChunkSizeMB)
	}
	if c.Simulation.Stripes < 0 {
		return fmt.Errorf("simulation.stripes must be >= 0, got %d", c.Simulation.Stripes)
	}
	if c.NumStripes() > math.MaxInt32 {
		return fmt.Errorf("%d stripes exceeds the supported maximum", c.NumStripes())
	}
	return nil
}

func validatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%s must be a finite value > 0, got %v", name, v)
	}
	return nil
}
