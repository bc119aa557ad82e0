// Package code describes the erasure-coding schemes the simulator supports:
// their parameters, the role of every chunk position within a stripe, the
// fault-tolerance rule used to decide data loss, and the cross-rack repair
// traffic needed to rebuild a stripe.
package code

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/reedsolomon"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidParams is returned for (n, k, l) combinations no scheme accepts.
	ErrInvalidParams = errors.New("invalid code parameters")
	// ErrUnsupportedDRC is returned for DRC shapes other than (9,5) and (9,6).
	ErrUnsupportedDRC = errors.New("unsupported DRC shape")
)

// Type identifies an erasure-coding family.
type Type int

const (
	TypeReplication Type = iota // n full copies
	TypeRS                      // Reed-Solomon-like MDS code
	TypeLRC                     // Locally Repairable Code
	TypeDRC                     // Double Regenerating Code
)

// String returns the short tag used in configuration files.
func (t Type) String() string {
	switch t {
	case TypeReplication:
		return "rep"
	case TypeRS:
		return "rs"
	case TypeLRC:
		return "lrc"
	case TypeDRC:
		return "drc"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseType parses a code tag. Matching is case-insensitive and accepts the
// long forms used by older configuration files.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rep", "replication":
		return TypeReplication, nil
	case "rs", "rsc", "reed-solomon":
		return TypeRS, nil
	case "lrc":
		return TypeLRC, nil
	case "drc":
		return TypeDRC, nil
	default:
		return TypeRS, fmt.Errorf("invalid code type: %q (must be 'rep', 'rs', 'lrc' or 'drc')", s)
	}
}

// MarshalYAML implements yaml.Marshaler for Type.
func (t Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Type.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Params are the user-facing code parameters.
type Params struct {
	Type Type `yaml:"type"`
	N    int  `yaml:"n"` // chunks per stripe
	K    int  `yaml:"k"` // data chunks per stripe
	L    int  `yaml:"l"` // local groups (LRC only)
}

// M is the number of parity chunks per stripe.
func (p Params) M() int { return p.N - p.K }

func (p Params) String() string {
	if p.Type == TypeLRC {
		return fmt.Sprintf("%s(%d,%d,%d)", p.Type, p.N, p.K, p.L)
	}
	return fmt.Sprintf("%s(%d,%d)", p.Type, p.N, p.K)
}

// Validate reports whether the parameters describe a scheme New accepts.
func (p Params) Validate() error {
	_, err := New(p)
	return err
}

// Scheme is a validated code with its position layout.
type Scheme struct {
	params Params
	layout *LRCLayout // nil unless TypeLRC
}

// New validates p and builds the scheme. For LRC the default layout is used,
// see DefaultLRCLayout.
func New(p Params) (*Scheme, error) {
	if p.K < 1 || p.N <= p.K {
		return nil, fmt.Errorf("%w: n=%d k=%d (need k >= 1 and n > k)", ErrInvalidParams, p.N, p.K)
	}
	s := &Scheme{params: p}
	switch p.Type {
	case TypeReplication:
	case TypeRS:
		if _, err := reedsolomon.New(p.K, p.M()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	case TypeLRC:
		layout, err := DefaultLRCLayout(p.N, p.K, p.L)
		if err != nil {
			return nil, err
		}
		s.layout = layout
	case TypeDRC:
		if _, ok := drcSingleRepairCost(p.N, p.K); !ok {
			return nil, fmt.Errorf("%w: (%d,%d), only (9,5) and (9,6) are modeled", ErrUnsupportedDRC, p.N, p.K)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidParams, int(p.Type))
	}
	return s, nil
}

// NewWithLayout builds an LRC scheme with a caller-supplied layout.
func NewWithLayout(p Params, layout *LRCLayout) (*Scheme, error) {
	if p.Type != TypeLRC {
		return nil, fmt.Errorf("%w: layouts only apply to lrc, got %s", ErrInvalidParams, p.Type)
	}
	if p.K < 1 || p.N <= p.K {
		return nil, fmt.Errorf("%w: n=%d k=%d (need k >= 1 and n > k)", ErrInvalidParams, p.N, p.K)
	}
	if err := layout.validate(p.N, p.L); err != nil {
		return nil, err
	}
	return &Scheme{params: p, layout: layout}, nil
}

func (s *Scheme) Params() Params { return s.params }
func (s *Scheme) Type() Type     { return s.params.Type }
func (s *Scheme) N() int         { return s.params.N }
func (s *Scheme) K() int         { return s.params.K }
func (s *Scheme) L() int         { return s.params.L }

// Layout returns the LRC layout, or nil for other code types.
func (s *Scheme) Layout() *LRCLayout { return s.layout }

// Tolerance is the largest Severity a stripe can have and still be decodable.
func (s *Scheme) Tolerance() int {
	if s.layout != nil {
		return s.params.N - s.params.K - s.params.L
	}
	return s.params.N - s.params.K
}

// Severity counts the failures a stripe cannot absorb locally. failed is
// indexed by chunk position and must have length N.
//
// For LRC, a failed global parity always counts; failed data chunks count per
// group, minus one when that group's local parity is alive. Failed local
// parities are not counted themselves. Every other code counts failed chunks.
func (s *Scheme) Severity(failed []bool) int {
	if s.layout == nil {
		n := 0
		for _, f := range failed {
			if f {
				n++
			}
		}
		return n
	}
	sum := 0
	for _, pos := range s.layout.GlobalParity {
		if failed[pos] {
			sum++
		}
	}
	for g, group := range s.layout.Groups {
		lost := 0
		for _, pos := range group {
			if failed[pos] {
				lost++
			}
		}
		if lost > 0 && !failed[s.layout.LocalParity[g]] {
			lost--
		}
		sum += lost
	}
	return sum
}

// IsLost reports whether a stripe with the given failed positions is unrecoverable.
func (s *Scheme) IsLost(failed []bool) bool {
	return s.Severity(failed) > s.Tolerance()
}
