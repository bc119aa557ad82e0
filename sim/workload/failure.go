// Package workload produces the disk-failure workload that drives a
// simulation: synthetic time-to-failure samplers and empirical failure
// traces, plus the per-topology metadata used by parameter sweeps.
package workload

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DistWeibull     = "weibull"
	DistExponential = "exponential"

	// DefaultReplayPeriod is the span of one recorded trace, in hours.
	DefaultReplayPeriod = 17520.0
)

// DefaultWeibullScale gives an annualized failure rate of 1.16%.
const DefaultWeibullScale = 8760.0 / 0.0116

// FailureSpec selects the failure model. When TraceFile is set the trace
// drives failures and the distribution fields are ignored.
type FailureSpec struct {
	Distribution string  `yaml:"distribution"`
	Shape        float64 `yaml:"shape,omitempty"` // Weibull shape
	Scale        float64 `yaml:"scale,omitempty"` // Weibull scale, hours
	Rate         float64 `yaml:"rate,omitempty"`  // exponential rate, failures per hour

	TraceFile    string  `yaml:"trace_file,omitempty"`
	ReplayPeriod float64 `yaml:"replay_period,omitempty"` // hours; 0 means DefaultReplayPeriod
}

// DefaultFailureSpec is a Weibull model with shape 1 (exponential life).
func DefaultFailureSpec() FailureSpec {
	return FailureSpec{
		Distribution: DistWeibull,
		Shape:        1.0,
		Scale:        DefaultWeibullScale,
		ReplayPeriod: DefaultReplayPeriod,
	}
}

// UsesTrace reports whether failures come from a recorded trace.
func (s FailureSpec) UsesTrace() bool { return s.TraceFile != "" }

// Period returns the replay period, falling back to DefaultReplayPeriod.
func (s FailureSpec) Period() float64 {
	if s.ReplayPeriod > 0 {
		return s.ReplayPeriod
	}
	return DefaultReplayPeriod
}

func (s FailureSpec) Validate() error {
	if s.ReplayPeriod < 0 || math.IsNaN(s.ReplayPeriod) {
		return fmt.Errorf("failures.replay_period must be >= 0, got %v", s.ReplayPeriod)
	}
	if s.UsesTrace() {
		return nil
	}
	_, err := NewFailureSampler(s)
	return err
}

// FailureSampler draws the time until a disk fails.
type FailureSampler interface {
	// Sample returns a non-negative duration in hours.
	Sample(rng *rand.Rand) float64
}

// NewFailureSampler builds the sampler described by spec.
func NewFailureSampler(spec FailureSpec) (FailureSampler, error) {
	switch spec.Distribution {
	case DistWeibull, "":
		if !(spec.Shape > 0) || !(spec.Scale > 0) || math.IsInf(spec.Scale, 0) {
			return nil, fmt.Errorf("weibull needs shape > 0 and finite scale > 0, got shape=%v scale=%v", spec.Shape, spec.Scale)
		}
		return &WeibullSampler{dist: distuv.Weibull{K: spec.Shape, Lambda: spec.Scale}}, nil
	case DistExponential:
		if !(spec.Rate > 0) || math.IsInf(spec.Rate, 0) {
			return nil, fmt.Errorf("exponential needs finite rate > 0, got %v", spec.Rate)
		}
		return &ExponentialSampler{dist: distuv.Exponential{Rate: spec.Rate}}, nil
	default:
		return nil, fmt.Errorf("unknown failure distribution %q (must be %q or %q)", spec.Distribution, DistWeibull, DistExponential)
	}
}

// WeibullSampler draws Weibull lifetimes by inverse transform.
type WeibullSampler struct {
	dist distuv.Weibull
}

func (s *WeibullSampler) Sample(rng *rand.Rand) float64 {
	return s.dist.Quantile(rng.Float64())
}

// Mean is the expected lifetime in hours.
func (s *WeibullSampler) Mean() float64 { return s.dist.Mean() }

// ExponentialSampler draws memoryless lifetimes.
type ExponentialSampler struct {
	dist distuv.Exponential
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return s.dist.Quantile(rng.Float64())
}

func (s *ExponentialSampler) Mean() float64 { return s.dist.Mean() }
