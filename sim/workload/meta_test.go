package workload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopologyMeta(t *testing.T) {
	input := "#disks/node,#nodes/rack,#racks,#total disks,#failures,iterations\n" +
		"4,10,20,800,12,1000\n" +
		"2,5,9,90,0,500\n"

	rows, err := ParseTopologyMeta(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, TopologyMeta{DisksPerNode: 4, NodesPerRack: 10, Racks: 20, TotalDisks: 800, Failures: 12, Iterations: 1000}, rows[0])
	assert.Equal(t, 0, rows[1].Failures)
}

func TestParseTopologyMeta_WithoutIterationsColumn(t *testing.T) {
	rows, err := ParseTopologyMeta(strings.NewReader("#disks/node,#nodes/rack,#racks,#total disks,#failures\n1,2,3,6,4\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Iterations)
	assert.Equal(t, 6, rows[0].TotalDisks)
}

func TestParseTopologyMeta_ShortRow(t *testing.T) {
	_, err := ParseTopologyMeta(strings.NewReader("1,2,3\n"))
	assert.Error(t, err)
}
