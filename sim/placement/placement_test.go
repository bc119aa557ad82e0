package placement

import (
	"maps"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecsim/ecsim/sim/code"
)

func mustScheme(t *testing.T, p code.Params) *code.Scheme {
	t.Helper()
	s, err := code.New(p)
	require.NoError(t, err)
	return s
}

func TestNew_TooFewRacksFailsCleanly(t *testing.T) {
	// GIVEN a single rack and a 6-chunk code
	scheme := mustScheme(t, code.Params{Type: code.TypeRS, N: 6, K: 4})
	topo := Topology{Racks: 1, NodesPerRack: 4, DisksPerNode: 4}

	// WHEN generating a placement
	p, err := New(topo, scheme, 100, rand.New(rand.NewSource(1)))

	// THEN it is rejected with ErrInsufficientRacks
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInsufficientRacks)
}

func TestGenerate_ChunksLandInDistinctRacks(t *testing.T) {
	tests := []struct {
		name  string
		racks int
		n     int
	}{
		{"rejection sampling regime", 40, 9},
		{"removal regime", 12, 9},
		{"exactly n racks", 9, 9},
		{"lrc wide stripe", 20, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := code.Params{Type: code.TypeRS, N: tt.n, K: tt.n - 3}
			topo := Topology{Racks: tt.racks, NodesPerRack: 2, DisksPerNode: 3}
			p, err := New(topo, mustScheme(t, params), 500, rand.New(rand.NewSource(7)))
			require.NoError(t, err)
			require.Equal(t, 500, p.NumStripes())

			for s := 0; s < p.NumStripes(); s++ {
				disks, err := p.StripeLayout(s)
				require.NoError(t, err)
				require.Len(t, disks, tt.n)
				racks := make(map[int]struct{})
				for _, d := range disks {
					require.GreaterOrEqual(t, d, 0)
					require.Less(t, d, topo.Disks())
					racks[topo.RackOf(d)] = struct{}{}
				}
				assert.Len(t, racks, tt.n, "stripe %d", s)
			}
		})
	}
}

func TestGenerate_InverseIndexMatchesLayout(t *testing.T) {
	topo := Topology{Racks: 10, NodesPerRack: 1, DisksPerNode: 2}
	p, err := New(topo, mustScheme(t, code.Params{Type: code.TypeRS, N: 6, K: 4}), 200, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	total := 0
	for d := 0; d < topo.Disks(); d++ {
		stripes, err := p.StripesOnDisk(d)
		require.NoError(t, err)
		assert.True(t, slices.IsSorted(stripes))
		for _, s := range stripes {
			layout, _ := p.StripeLayout(s)
			assert.Contains(t, layout, d)
		}
		total += len(stripes)
	}
	assert.Equal(t, 200*6, total)
}

func TestGenerate_SameSeedSameLayout(t *testing.T) {
	topo := Topology{Racks: 30, NodesPerRack: 2, DisksPerNode: 2}
	scheme := mustScheme(t, code.Params{Type: code.TypeRS, N: 9, K: 6})
	a, err := New(topo, scheme, 50, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	b, err := New(topo, scheme, 50, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	for s := 0; s < 50; s++ {
		la, _ := a.StripeLayout(s)
		lb, _ := b.StripeLayout(s)
		assert.Equal(t, la, lb)
	}
}

func TestLookups_OutOfRange(t *testing.T) {
	topo := Topology{Racks: 6, NodesPerRack: 1, DisksPerNode: 1}
	p, err := New(topo, mustScheme(t, code.Params{Type: code.TypeRS, N: 6, K: 4}), 5, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = p.StripesOnDisk(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = p.StripesOnDisk(6)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = p.StripeLayout(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// replicatedCluster builds 3-way replication over exactly 3 single-disk racks
// so every stripe sits on disks {0,1,2}.
func replicatedCluster(t *testing.T, k int) *Placement {
	t.Helper()
	topo := Topology{Racks: 3, NodesPerRack: 1, DisksPerNode: 1}
	p, err := New(topo, mustScheme(t, code.Params{Type: code.TypeReplication, N: 3, K: k}), 4, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	return p
}

func TestCheckDataLoss_Replication(t *testing.T) {
	tests := []struct {
		name        string
		k           int
		failed      []int
		wantLoss    bool
		wantStripes int
		wantChunks  int
	}{
		{"two of three copies failed keeps one copy", 1, []int{0, 1}, false, 0, 0},
		{"all three copies failed", 1, []int{0, 1, 2}, true, 4, 12},
		{"k=2 with two failed", 2, []int{1, 2}, true, 4, 8},
		{"no failures", 1, nil, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := replicatedCluster(t, tt.k)
			report := p.CheckDataLoss(tt.failed)
			assert.Equal(t, tt.wantLoss, report.DataLoss)
			assert.Equal(t, tt.wantStripes, report.LostStripes)
			assert.Equal(t, tt.wantChunks, report.LostChunks)
		})
	}
}

func TestCheckDataLoss_LRCLocalParityCoversDataChunk(t *testing.T) {
	// GIVEN LRC(16,12,2) over exactly 16 single-disk racks
	topo := Topology{Racks: 16, NodesPerRack: 1, DisksPerNode: 1}
	p, err := New(topo, mustScheme(t, code.Params{Type: code.TypeLRC, N: 16, K: 12, L: 2}), 1, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	layout, _ := p.StripeLayout(0)

	// WHEN the group-0 data chunk at position 0 fails while local parity 6 is alive
	report := p.CheckDataLoss([]int{layout[0]})

	// THEN no data is lost
	assert.False(t, report.DataLoss)

	// AND losing both global parities plus a data chunk and its local parity is fatal
	report = p.CheckDataLoss([]int{layout[7], layout[15], layout[2], layout[6]})
	assert.True(t, report.DataLoss)
	assert.Equal(t, 1, report.LostStripes)
	assert.Equal(t, 4, report.LostChunks)
}

func TestCheckStripeLoss_UsesPendingDisksOnly(t *testing.T) {
	p := replicatedCluster(t, 1)
	pending := map[int][]int{
		0: {0, 1, 2},
		1: {0, 1},
		2: {0, 1, 2, 99}, // 99 holds no chunk of stripe 2
	}

	report := p.CheckStripeLoss(maps.All(pending))

	assert.True(t, report.DataLoss)
	assert.Equal(t, 2, report.LostStripes)
	assert.Equal(t, 6, report.LostChunks)
}
