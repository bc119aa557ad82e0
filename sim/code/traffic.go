package code

// StripeView describes one stripe at the moment a repair is admitted, as seen
// from the rack of the disk that triggered the repair.
type StripeView struct {
	// Failed chunk positions, ascending.
	Failed []int
	// Positions of alive chunks stored in the trigger disk's rack.
	AliveInRack []int
}

// RepairTraffic returns the number of chunks that must cross racks to rebuild
// the failed chunks of a stripe. It is never negative.
func (s *Scheme) RepairTraffic(v StripeView) float64 {
	k := s.params.K
	switch s.params.Type {
	case TypeLRC:
		if len(v.Failed) == 1 {
			failed := v.Failed[0]
			if s.layout.Role(failed) == RoleGlobalParity {
				return atLeastZero(k - len(v.AliveInRack))
			}
			group := s.layout.GroupOf(failed)
			local := 0
			for _, pos := range v.AliveInRack {
				if s.layout.GroupOf(pos) == group {
					local++
				}
			}
			return atLeastZero(k/s.params.L - local)
		}
	case TypeDRC:
		if len(v.Failed) == 1 {
			cost, _ := drcSingleRepairCost(s.params.N, k)
			return cost
		}
	}
	return atLeastZero(k - len(v.AliveInRack))
}

// drcSingleRepairCost is the cross-rack download for a single failed chunk
// of the DRC shapes the simulator models.
func drcSingleRepairCost(n, k int) (float64, bool) {
	switch {
	case n == 9 && k == 5:
		return 1.0, true
	case n == 9 && k == 6:
		return 2.0, true
	default:
		return 0, false
	}
}

func atLeastZero(v int) float64 {
	if v < 0 {
		return 0
	}
	return float64(v)
}
