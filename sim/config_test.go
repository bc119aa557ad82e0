package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/placement"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Topology.Disks())
	// 512 GiB * 800 disks / 9 chunks / 256 MiB / 2
	assert.Equal(t, int64(91022), cfg.NumStripes())
	assert.Equal(t, cfg.NumStripes()*9, cfg.TotalChunks())
}

func TestConfig_NumStripes_ExplicitOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.Stripes = 12
	assert.Equal(t, int64(12), cfg.NumStripes())
}

func TestConfig_Validate_RejectsBadSections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too few racks", func(c *Config) { c.Topology.Racks = 8 }},
		{"invalid code", func(c *Config) { c.Code = code.Params{Type: code.TypeRS, N: 4, K: 4} }},
		{"zero cross-rack bandwidth", func(c *Config) { c.Network.CrossRackMBps = 0 }},
		{"negative intra-rack bandwidth", func(c *Config) { c.Network.IntraRackMBps = -1 }},
		{"unknown policy", func(c *Config) { c.Repair.Policy = "sometimes" }},
		{"lazy without threshold", func(c *Config) {
			c.Repair.Policy = RepairLazy
			c.Repair.Threshold = 0
		}},
		{"negative mission", func(c *Config) { c.Simulation.MissionHours = -1 }},
		{"no iterations", func(c *Config) { c.Simulation.Iterations = 0 }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -2 }},
		{"zero chunk size", func(c *Config) { c.Simulation.ChunkSizeMB = 0 }},
		{"bad failure model", func(c *Config) { c.Failures.Shape = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_TooFewRacksWrapsPlacementError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.Racks = 1
	assert.ErrorIs(t, cfg.Validate(), placement.ErrInsufficientRacks)
}

func TestConfig_YAMLInlineTopology(t *testing.T) {
	// GIVEN a YAML document with topology fields at the section's top level
	doc := `
topology:
  racks: 12
  nodes_per_rack: 2
  disks_per_node: 3
  capacity_per_disk_mb: 1024
code:
  type: lrc
  n: 16
  k: 12
  l: 2
repair:
  policy: lazy
  lazy_threshold: 3
`
	// WHEN it is decoded over the defaults
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	// THEN the embedded topology and the remaining defaults are both populated
	assert.Equal(t, 12, cfg.Topology.Racks)
	assert.Equal(t, 3, cfg.Topology.DisksPerNode)
	assert.Equal(t, code.TypeLRC, cfg.Code.Type)
	assert.Equal(t, RepairLazy, cfg.Repair.Policy)
	assert.Equal(t, 3, cfg.Repair.Threshold)
	assert.Equal(t, 125.0, cfg.Network.CrossRackMBps)
	assert.Error(t, cfg.Validate(), "16 chunks need at least 16 racks")
}

func TestRepairPolicy_Opposite(t *testing.T) {
	assert.Equal(t, RepairLazy, RepairEager.Opposite())
	assert.Equal(t, RepairEager, RepairLazy.Opposite())
}
