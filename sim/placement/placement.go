// Package placement lays stripes out across the cluster and decides, for a
// set of failed disks, which stripes have become unrecoverable.
//
// Every stripe's n chunks land in n distinct racks, one disk per rack. The
// layout is immutable once generated; the simulator builds a fresh one at the
// start of every iteration.
package placement

import (
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ecsim/ecsim/sim/code"
)

var (
	// ErrInsufficientRacks is returned when the cluster has fewer racks than chunks per stripe.
	ErrInsufficientRacks = errors.New("not enough racks for one chunk per rack")
	// ErrOutOfRange is returned for disk or stripe ids outside the layout.
	ErrOutOfRange = errors.New("id out of range")
)

// Topology is the physical shape of the cluster. Disk ids are dense: rack r
// owns disks [r*DisksPerRack(), (r+1)*DisksPerRack()).
type Topology struct {
	Racks        int `yaml:"racks"`
	NodesPerRack int `yaml:"nodes_per_rack"`
	DisksPerNode int `yaml:"disks_per_node"`
}

func (t Topology) DisksPerRack() int { return t.NodesPerRack * t.DisksPerNode }
func (t Topology) Disks() int        { return t.Racks * t.DisksPerRack() }

// RackOf returns the rack holding disk id.
func (t Topology) RackOf(disk int) int { return disk / t.DisksPerRack() }

// Validate checks that the topology can hold stripes of n chunks.
func (t Topology) Validate(n int) error {
	if t.Racks < 1 || t.NodesPerRack < 1 || t.DisksPerNode < 1 {
		return fmt.Errorf("topology needs at least one rack, node and disk, got racks=%d nodes/rack=%d disks/node=%d",
			t.Racks, t.NodesPerRack, t.DisksPerNode)
	}
	if t.Racks < n {
		return fmt.Errorf("%w: %d racks, %d chunks per stripe", ErrInsufficientRacks, t.Racks, n)
	}
	return nil
}

// Placement is the stripe layout of one iteration.
type Placement struct {
	topo    Topology
	scheme  *code.Scheme
	stripes [][]int // stripe -> disk per chunk position
	byDisk  [][]int // disk -> stripes with a chunk on it, ascending
	rng     *rand.Rand
}

// New validates the topology against the scheme and generates numStripes
// stripes using rng.
func New(topo Topology, scheme *code.Scheme, numStripes int, rng *rand.Rand) (*Placement, error) {
	if err := topo.Validate(scheme.N()); err != nil {
		return nil, err
	}
	if numStripes < 0 {
		return nil, fmt.Errorf("negative stripe count %d", numStripes)
	}
	p := &Placement{
		topo:    topo,
		scheme:  scheme,
		stripes: make([][]int, numStripes),
		rng:     rng,
	}
	p.Generate()
	return p, nil
}

// Generate draws a new layout, replacing the current one.
func (p *Placement) Generate() {
	n := p.scheme.N()
	perRack := p.topo.DisksPerRack()
	flat := make([]int, len(p.stripes)*n)
	for s := range p.stripes {
		disks := flat[s*n : (s+1)*n : (s+1)*n]
		for i, rack := range p.distinctRacks(n) {
			disks[i] = rack*perRack + p.rng.Intn(perRack)
		}
		p.stripes[s] = disks
	}

	p.byDisk = make([][]int, p.topo.Disks())
	for s, disks := range p.stripes {
		for _, d := range disks {
			p.byDisk[d] = append(p.byDisk[d], s)
		}
	}
	logrus.Debugf("placement: generated %d stripes of %s over %d disks", len(p.stripes), p.scheme.Params(), p.topo.Disks())
}

// distinctRacks picks n distinct racks. With plenty of racks it rejection
// samples; otherwise it removes random racks from the full list until n
// remain and shuffles them.
func (p *Placement) distinctRacks(n int) []int {
	racks := p.topo.Racks
	if 2*n < racks {
		chosen := make([]int, 0, n)
		for len(chosen) < n {
			r := p.drawRack()
			if !slices.Contains(chosen, r) {
				chosen = append(chosen, r)
			}
		}
		return chosen
	}
	remaining := make([]int, racks)
	for i := range remaining {
		remaining[i] = i
	}
	for removed := 0; removed < racks-n; {
		r := p.drawRack()
		if i := slices.Index(remaining, r); i >= 0 {
			remaining = slices.Delete(remaining, i, i+1)
			removed++
		}
	}
	p.rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})
	return remaining
}

// drawRack draws from [0, racks-1). The highest-numbered rack is never drawn:
// rejection sampling never picks it and the removal regime never removes it.
func (p *Placement) drawRack() int {
	if p.topo.Racks == 1 {
		return 0
	}
	return p.rng.Intn(p.topo.Racks - 1)
}

func (p *Placement) Topology() Topology   { return p.topo }
func (p *Placement) Scheme() *code.Scheme { return p.scheme }
func (p *Placement) NumStripes() int      { return len(p.stripes) }

// StripesOnDisk returns the stripes holding a chunk on disk. The slice is
// shared and must not be modified.
func (p *Placement) StripesOnDisk(disk int) ([]int, error) {
	if disk < 0 || disk >= len(p.byDisk) {
		return nil, fmt.Errorf("%w: disk %d not in [0,%d)", ErrOutOfRange, disk, len(p.byDisk))
	}
	return p.byDisk[disk], nil
}

// StripeLayout returns the disk of every chunk position of stripe. The slice
// is shared and must not be modified.
func (p *Placement) StripeLayout(stripe int) ([]int, error) {
	if stripe < 0 || stripe >= len(p.stripes) {
		return nil, fmt.Errorf("%w: stripe %d not in [0,%d)", ErrOutOfRange, stripe, len(p.stripes))
	}
	return p.stripes[stripe], nil
}

// LossReport is the outcome of a data-loss check.
type LossReport struct {
	DataLoss    bool
	LostStripes int
	LostChunks  int // failed chunks of lost stripes
}

// CheckDataLoss examines every stripe touching a failed disk.
func (p *Placement) CheckDataLoss(failed []int) LossReport {
	isFailed := make(map[int]struct{}, len(failed))
	touched := make(map[int]struct{})
	for _, d := range failed {
		if d < 0 || d >= len(p.byDisk) {
			logrus.Warnf("placement: ignoring out-of-range failed disk %d", d)
			continue
		}
		isFailed[d] = struct{}{}
		for _, s := range p.byDisk[d] {
			touched[s] = struct{}{}
		}
	}
	var report LossReport
	mask := make([]bool, p.scheme.N())
	for s := range touched {
		for i, d := range p.stripes[s] {
			_, mask[i] = isFailed[d]
		}
		p.account(&report, mask)
	}
	return report
}

// CheckStripeLoss examines each (stripe, disks needing repair) pair. Disks
// that do not hold a chunk of the stripe are ignored.
func (p *Placement) CheckStripeLoss(pending iter.Seq2[int, []int]) LossReport {
	var report LossReport
	mask := make([]bool, p.scheme.N())
	for s, disks := range pending {
		if s < 0 || s >= len(p.stripes) {
			logrus.Warnf("placement: ignoring out-of-range stripe %d", s)
			continue
		}
		for i, d := range p.stripes[s] {
			mask[i] = slices.Contains(disks, d)
		}
		p.account(&report, mask)
	}
	return report
}

func (p *Placement) account(report *LossReport, mask []bool) {
	if !p.scheme.IsLost(mask) {
		return
	}
	report.DataLoss = true
	report.LostStripes++
	for _, f := range mask {
		if f {
			report.LostChunks++
		}
	}
}
