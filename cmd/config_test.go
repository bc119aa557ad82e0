package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/code"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	fc, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultConfig(), fc.Config)
	assert.Equal(t, "text", fc.Output.Format)
}

func TestLoadConfig_OverlaysFileOnDefaults(t *testing.T) {
	// GIVEN a file that sets only the code and output sections
	path := writeFile(t, "cfg.yaml", `
code:
  type: lrc
  n: 16
  k: 12
  l: 2
topology:
  racks: 32
output:
  format: json
`)

	// WHEN it is loaded
	fc, err := loadConfig(path)

	// THEN the file wins where set and defaults fill the rest
	require.NoError(t, err)
	assert.Equal(t, code.Params{Type: code.TypeLRC, N: 16, K: 12, L: 2}, fc.Code)
	assert.Equal(t, 32, fc.Topology.Racks)
	assert.Equal(t, 10, fc.Topology.NodesPerRack)
	assert.Equal(t, "json", fc.Output.Format)
	assert.NoError(t, fc.Validate())
}

func TestLoadConfig_UnknownFieldIsError(t *testing.T) {
	// GIVEN a typo in a key
	path := writeFile(t, "cfg.yaml", "simulation:\n  iteration: 10\n")

	// WHEN it is loaded
	_, err := loadConfig(path)

	// THEN strict parsing rejects it
	assert.Error(t, err)
}

func TestLoadConfig_EmptyFileAndBadOutput(t *testing.T) {
	fc, err := loadConfig(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultConfig(), fc.Config)

	_, err = loadConfig(writeFile(t, "bad.yaml", "output:\n  format: xml\n"))
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	// GIVEN a file configuration with 50 iterations
	fc := defaultFileConfig()
	fc.Simulation.Iterations = 50
	fc.Simulation.Seed = 9
	c := &cobra.Command{Use: "test"}
	registerSimulationFlags(c)

	// WHEN only the code type and lazy policy are set on the command line
	require.NoError(t, c.Flags().Set("code", "drc"))
	require.NoError(t, c.Flags().Set("policy", "lazy"))
	require.NoError(t, applyFlags(c, &fc))

	// THEN those fields change and unset flag defaults leave the file values alone
	assert.Equal(t, code.TypeDRC, fc.Code.Type)
	assert.Equal(t, sim.RepairLazy, fc.Repair.Policy)
	assert.Equal(t, 50, fc.Simulation.Iterations)
	assert.Equal(t, int64(9), fc.Simulation.Seed)
}

func TestApplyFlags_RejectsUnknownCode(t *testing.T) {
	fc := defaultFileConfig()
	c := &cobra.Command{Use: "test"}
	registerSimulationFlags(c)
	require.NoError(t, c.Flags().Set("code", "fountain"))

	assert.Error(t, applyFlags(c, &fc))
}
