package code

import (
	"fmt"
	"slices"
)

// Role is the part a chunk position plays in an LRC stripe.
type Role int

const (
	RoleData Role = iota
	RoleLocalParity
	RoleGlobalParity
)

func (r Role) String() string {
	switch r {
	case RoleData:
		return "data"
	case RoleLocalParity:
		return "local-parity"
	case RoleGlobalParity:
		return "global-parity"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// LRCLayout assigns every stripe position of an LRC code to a data group, a
// group's local parity, or the global parity set.
type LRCLayout struct {
	Groups       [][]int // data positions of each group
	LocalParity  []int   // LocalParity[g] protects Groups[g]
	GlobalParity []int

	roles   []Role
	groupOf []int // group index per position, -1 for global parity
}

// DefaultLRCLayout lays out l segments back to back. Each segment holds k/l
// data positions followed by its local parity; global parities are dealt
// round-robin onto the segment tails. For (16,12,2) this yields groups
// {0..5} and {8..13}, local parities 6 and 14, global parities 7 and 15.
func DefaultLRCLayout(n, k, l int) (*LRCLayout, error) {
	if l < 1 || k%l != 0 {
		return nil, fmt.Errorf("%w: lrc needs l >= 1 dividing k, got k=%d l=%d", ErrInvalidParams, k, l)
	}
	globals := n - k - l
	if globals < 0 {
		return nil, fmt.Errorf("%w: lrc needs n >= k+l, got n=%d k=%d l=%d", ErrInvalidParams, n, k, l)
	}
	perGroup := k / l
	extra := make([]int, l)
	for j := 0; j < globals; j++ {
		extra[j%l]++
	}

	layout := &LRCLayout{
		Groups:      make([][]int, l),
		LocalParity: make([]int, l),
	}
	pos := 0
	for g := 0; g < l; g++ {
		for i := 0; i < perGroup; i++ {
			layout.Groups[g] = append(layout.Groups[g], pos)
			pos++
		}
		layout.LocalParity[g] = pos
		pos++
		for i := 0; i < extra[g]; i++ {
			layout.GlobalParity = append(layout.GlobalParity, pos)
			pos++
		}
	}
	if err := layout.validate(n, l); err != nil {
		return nil, err
	}
	return layout, nil
}

// validate checks that the layout partitions [0, n) and fills the lookup tables.
func (lt *LRCLayout) validate(n, l int) error {
	if lt == nil {
		return fmt.Errorf("%w: nil lrc layout", ErrInvalidParams)
	}
	if len(lt.Groups) != l || len(lt.LocalParity) != l {
		return fmt.Errorf("%w: layout has %d groups and %d local parities, want %d",
			ErrInvalidParams, len(lt.Groups), len(lt.LocalParity), l)
	}
	roles := make([]Role, n)
	groupOf := make([]int, n)
	seen := make([]bool, n)
	claim := func(pos int) error {
		if pos < 0 || pos >= n {
			return fmt.Errorf("%w: layout position %d outside [0,%d)", ErrInvalidParams, pos, n)
		}
		if seen[pos] {
			return fmt.Errorf("%w: layout position %d assigned twice", ErrInvalidParams, pos)
		}
		seen[pos] = true
		return nil
	}
	for g, group := range lt.Groups {
		for _, pos := range group {
			if err := claim(pos); err != nil {
				return err
			}
			roles[pos] = RoleData
			groupOf[pos] = g
		}
		lp := lt.LocalParity[g]
		if err := claim(lp); err != nil {
			return err
		}
		roles[lp] = RoleLocalParity
		groupOf[lp] = g
	}
	for _, pos := range lt.GlobalParity {
		if err := claim(pos); err != nil {
			return err
		}
		roles[pos] = RoleGlobalParity
		groupOf[pos] = -1
	}
	if i := slices.Index(seen, false); i >= 0 {
		return fmt.Errorf("%w: layout leaves position %d unassigned", ErrInvalidParams, i)
	}
	lt.roles = roles
	lt.groupOf = groupOf
	return nil
}

// Role returns the role of position pos.
func (lt *LRCLayout) Role(pos int) Role { return lt.roles[pos] }

// GroupOf returns the group index of a data or local-parity position and -1
// for a global parity.
func (lt *LRCLayout) GroupOf(pos int) int { return lt.groupOf[pos] }
