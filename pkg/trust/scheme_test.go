package trust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeightingScheme_Valid(t *testing.T) {
	s, err := NewWeightingScheme(DefaultWeights())
	require.NoError(t, err)

	w, ok := s.Lookup(CheckCompleteness)
	assert.True(t, ok)
	assert.InDelta(t, 0.25, w, 0.0001)
	assert.Len(t, s.Declared(), 6)
}

func TestNewWeightingScheme_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		weights []Weight
	}{
		{"empty", nil},
		{"all zero", []Weight{{Check: "a", Weight: 0}, {Check: "b", Weight: 0}}},
		{"negative", []Weight{{Check: "a", Weight: -0.1}}},
		{"nan", []Weight{{Check: "a", Weight: math.NaN()}}},
		{"infinite", []Weight{{Check: "a", Weight: math.Inf(1)}}},
		{"duplicate name", []Weight{{Check: "a", Weight: 1}, {Check: "a", Weight: 2}}},
		{"empty name", []Weight{{Check: "", Weight: 1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWeightingScheme(tc.weights)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAggregate_WeightedAverage(t *testing.T) {
	scheme, err := NewWeightingScheme([]Weight{
		{Check: "completeness", Weight: 1},
		{Check: "freshness", Weight: 1},
		{Check: "schema", Weight: 1},
		{Check: "provenance", Weight: 1},
	})
	require.NoError(t, err)

	results := []CheckResult{
		{Check: "completeness", Score: 0.8, Valid: true},
		{Check: "freshness", Score: 1.0, Valid: true},
		{Check: "schema", Score: 1.0, Valid: true},
		{Check: "provenance", Score: 0.5, Valid: true},
	}

	composite, insufficient := aggregate(orderResults(results, scheme), scheme)
	assert.False(t, insufficient)
	assert.InDelta(t, 82.5, composite, 0.0001)
}

func TestAggregate_SkipsInvalidResults(t *testing.T) {
	scheme, err := NewWeightingScheme([]Weight{
		{Check: "a", Weight: 3},
		{Check: "b", Weight: 1},
	})
	require.NoError(t, err)

	results := []CheckResult{
		{Check: "a", Score: 0.5, Valid: true},
		{Check: "b", Score: 1.0, Valid: false},
	}

	composite, insufficient := aggregate(orderResults(results, scheme), scheme)
	assert.False(t, insufficient)
	assert.InDelta(t, 50.0, composite, 0.0001)
}

func TestAggregate_UnknownCheckGetsFallbackWeight(t *testing.T) {
	scheme, err := NewWeightingScheme([]Weight{{Check: "known", Weight: 1}})
	require.NoError(t, err)

	results := []CheckResult{
		{Check: "known", Score: 1.0, Valid: true},
		{Check: "experimental", Score: 0.0, Valid: true},
	}

	// FallbackWeight is 1.0, so the unknown check halves the composite
	// instead of being dropped.
	composite, insufficient := aggregate(orderResults(results, scheme), scheme)
	assert.False(t, insufficient)
	assert.InDelta(t, 50.0, composite, 0.0001)
}

func TestAggregate_NoValidResults(t *testing.T) {
	scheme, err := NewWeightingScheme(DefaultWeights())
	require.NoError(t, err)

	results := []CheckResult{
		{Check: CheckCompleteness, Valid: false},
		{Check: CheckFreshness, Valid: false},
	}

	composite, insufficient := aggregate(orderResults(results, scheme), scheme)
	assert.True(t, insufficient)
	assert.Zero(t, composite)
}

func TestOrderResults_SchemeOrderWins(t *testing.T) {
	scheme, err := NewWeightingScheme([]Weight{
		{Check: "first", Weight: 1},
		{Check: "second", Weight: 1},
	})
	require.NoError(t, err)

	// Input order reversed, plus one check the scheme does not know.
	results := []CheckResult{
		{Check: "extra", Valid: true},
		{Check: "second", Valid: true},
		{Check: "first", Valid: true},
	}

	ordered := orderResults(results, scheme)
	require.Len(t, ordered, 3)
	assert.Equal(t, "first", ordered[0].Check)
	assert.Equal(t, "second", ordered[1].Check)
	assert.Equal(t, "extra", ordered[2].Check)
}
