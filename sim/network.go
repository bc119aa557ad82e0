package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// bandwidthTolerance absorbs rounding when proportional shares are returned.
const bandwidthTolerance = 1e-5

// Network holds the repair bandwidth pools: one shared cross-rack pool and
// one intra-rack pool per rack.
//
// A repair claims the entire cross-rack pool and returns its share when its
// event fires, so at most one repair wave is in flight at a time. Intra-rack
// bandwidth only gates admission and is never consumed.
type Network struct {
	maxCross   float64
	maxIntra   float64
	availCross float64
	availIntra []float64
}

// NewNetwork creates pools for racks racks, all fully available.
func NewNetwork(racks int, cfg NetworkConfig) *Network {
	n := &Network{
		maxCross:   cfg.CrossRackMBps,
		maxIntra:   cfg.IntraRackMBps,
		availCross: cfg.CrossRackMBps,
		availIntra: make([]float64, racks),
	}
	for i := range n.availIntra {
		n.availIntra[i] = cfg.IntraRackMBps
	}
	return n
}

func (n *Network) MaxCrossRack() float64       { return n.maxCross }
func (n *Network) CrossRackAvailable() float64 { return n.availCross }

// SetCrossRackAvailable sets the available cross-rack bandwidth. Values
// outside [0, max] are rejected and leave the pool unchanged.
func (n *Network) SetCrossRackAvailable(v float64) error {
	if v < 0 || v > n.maxCross {
		logrus.Errorf("network: cross-rack bandwidth %v outside [0, %v]", v, n.maxCross)
		return fmt.Errorf("%w: cross-rack %v not in [0, %v]", ErrBandwidthOutOfRange, v, n.maxCross)
	}
	n.availCross = v
	return nil
}

// IntraRackAvailable returns the available intra-rack bandwidth of rack.
func (n *Network) IntraRackAvailable(rack int) (float64, error) {
	if rack < 0 || rack >= len(n.availIntra) {
		return 0, fmt.Errorf("%w: rack %d not in [0,%d)", ErrRackOutOfRange, rack, len(n.availIntra))
	}
	return n.availIntra[rack], nil
}

// SetIntraRackAvailable sets the available intra-rack bandwidth of rack.
func (n *Network) SetIntraRackAvailable(rack int, v float64) error {
	if rack < 0 || rack >= len(n.availIntra) {
		return fmt.Errorf("%w: rack %d not in [0,%d)", ErrRackOutOfRange, rack, len(n.availIntra))
	}
	if v < 0 || v > n.maxIntra {
		logrus.Errorf("network: intra-rack bandwidth %v for rack %d outside [0, %v]", v, rack, n.maxIntra)
		return fmt.Errorf("%w: intra-rack %v not in [0, %v]", ErrBandwidthOutOfRange, v, n.maxIntra)
	}
	n.availIntra[rack] = v
	return nil
}

// Claim takes all available cross-rack bandwidth and returns the amount taken.
func (n *Network) Claim() float64 {
	bw := n.availCross
	n.availCross = 0
	return bw
}

// Release returns a previously claimed share. Overshoot within rounding
// tolerance is clamped to the maximum.
func (n *Network) Release(share float64) error {
	if share < 0 {
		return fmt.Errorf("%w: negative share %v", ErrBandwidthOutOfRange, share)
	}
	v := n.availCross + share
	if v > n.maxCross {
		if v-n.maxCross > bandwidthTolerance {
			logrus.Errorf("network: releasing %v would raise cross-rack bandwidth to %v (max %v)", share, v, n.maxCross)
			return fmt.Errorf("%w: release of %v exceeds max %v", ErrBandwidthOutOfRange, share, n.maxCross)
		}
		v = n.maxCross
	}
	n.availCross = v
	return nil
}

// CanAdmit reports whether a repair for a disk in rack may start now.
func (n *Network) CanAdmit(rack int) bool {
	intra, err := n.IntraRackAvailable(rack)
	return err == nil && n.availCross > 0 && intra > 0
}
