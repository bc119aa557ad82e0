package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailureSampler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		spec    FailureSpec
		wantErr bool
	}{
		{"default weibull", DefaultFailureSpec(), false},
		{"exponential", FailureSpec{Distribution: DistExponential, Rate: 1e-4}, false},
		{"empty distribution means weibull", FailureSpec{Shape: 1.2, Scale: 1000}, false},
		{"weibull zero shape", FailureSpec{Distribution: DistWeibull, Shape: 0, Scale: 10}, true},
		{"weibull nan scale", FailureSpec{Distribution: DistWeibull, Shape: 1, Scale: math.NaN()}, true},
		{"exponential zero rate", FailureSpec{Distribution: DistExponential}, true},
		{"unknown", FailureSpec{Distribution: "lognormal"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFailureSampler(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFailureSpec_TraceSkipsDistributionChecks(t *testing.T) {
	spec := FailureSpec{Distribution: "bogus", TraceFile: "trace.csv"}
	assert.True(t, spec.UsesTrace())
	assert.NoError(t, spec.Validate())
	assert.Equal(t, DefaultReplayPeriod, spec.Period())
}

func TestWeibullSampler_MeanMatchesScale(t *testing.T) {
	// GIVEN shape 1, where the Weibull mean equals its scale
	sampler, err := NewFailureSampler(FailureSpec{Distribution: DistWeibull, Shape: 1, Scale: 500})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))

	// WHEN drawing many lifetimes
	const draws = 200000
	sum := 0.0
	for i := 0; i < draws; i++ {
		v := sampler.Sample(rng)
		require.GreaterOrEqual(t, v, 0.0)
		sum += v
	}

	// THEN the sample mean is within 2% of the scale
	assert.InEpsilon(t, 500.0, sum/draws, 0.02)
	assert.InDelta(t, 500.0, sampler.(*WeibullSampler).Mean(), 1e-9)
}

func TestSampler_DeterministicForSeed(t *testing.T) {
	sampler, err := NewFailureSampler(FailureSpec{Distribution: DistExponential, Rate: 0.01})
	require.NoError(t, err)
	a := rand.New(rand.NewSource(9))
	b := rand.New(rand.NewSource(9))
	for i := 0; i < 10; i++ {
		assert.Equal(t, sampler.Sample(a), sampler.Sample(b))
	}
}
