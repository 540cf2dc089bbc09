package trust

import (
	"errors"
	"fmt"
	"math"
)

// FallbackWeight applies to a valid result whose check name is not in the
// scheme. Unknown checks still count - silently dropping them would skew
// comparisons between runs with different check sets.
const FallbackWeight = 1.0

// ErrInvalidConfig marks configuration that must stop a run before any
// source is scored.
var ErrInvalidConfig = errors.New("invalid scoring configuration")

// Weight binds one check name to its non-negative weight.
type Weight struct {
	Check  string  `json:"check" yaml:"check"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// WeightingScheme is an ordered set of check weights. The declared order
// fixes the summation order of the aggregator, which keeps composite
// scores bit-for-bit reproducible. Immutable once built.
type WeightingScheme struct {
	declared []Weight
	index    map[string]float64
}

// NewWeightingScheme validates and builds a scheme. All weights must be
// finite and non-negative, at least one must be positive, and check names
// must be unique.
func NewWeightingScheme(weights []Weight) (*WeightingScheme, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: weighting scheme is empty", ErrInvalidConfig)
	}

	index := make(map[string]float64, len(weights))
	declared := make([]Weight, 0, len(weights))
	var positive bool

	for _, w := range weights {
		if w.Check == "" {
			return nil, fmt.Errorf("%w: weight entry with empty check name", ErrInvalidConfig)
		}
		if _, dup := index[w.Check]; dup {
			return nil, fmt.Errorf("%w: duplicate check name %q", ErrInvalidConfig, w.Check)
		}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return nil, fmt.Errorf("%w: weight for %q is not finite", ErrInvalidConfig, w.Check)
		}
		if w.Weight < 0 {
			return nil, fmt.Errorf("%w: weight for %q is negative", ErrInvalidConfig, w.Check)
		}
		if w.Weight > 0 {
			positive = true
		}
		index[w.Check] = w.Weight
		declared = append(declared, w)
	}

	if !positive {
		return nil, fmt.Errorf("%w: scheme needs at least one positive weight", ErrInvalidConfig)
	}

	return &WeightingScheme{declared: declared, index: index}, nil
}

// DefaultWeights is the stock scheme. Content checks carry the bulk,
// metadata and reliability auditors the remainder.
func DefaultWeights() []Weight {
	return []Weight{
		{Check: CheckCompleteness, Weight: 0.25},
		{Check: CheckFreshness, Weight: 0.20},
		{Check: CheckSchema, Weight: 0.20},
		{Check: CheckProvenance, Weight: 0.15},
		{Check: CheckCadence, Weight: 0.10},
		{Check: CheckReliability, Weight: 0.10},
	}
}

// Declared returns the weights in scheme order.
func (s *WeightingScheme) Declared() []Weight {
	out := make([]Weight, len(s.declared))
	copy(out, s.declared)
	return out
}

// Lookup returns the weight for a check name.
func (s *WeightingScheme) Lookup(name string) (float64, bool) {
	w, ok := s.index[name]
	return w, ok
}

// orderResults arranges results into aggregation order: scheme-declared
// checks first (in scheme order), then any results for checks the scheme
// does not know about, in the order they were produced.
func orderResults(results []CheckResult, scheme *WeightingScheme) []CheckResult {
	byName := make(map[string]CheckResult, len(results))
	for _, r := range results {
		byName[r.Check] = r
	}

	ordered := make([]CheckResult, 0, len(results))
	for _, w := range scheme.declared {
		if r, ok := byName[w.Check]; ok {
			ordered = append(ordered, r)
			delete(byName, w.Check)
		}
	}
	for _, r := range results {
		if _, left := byName[r.Check]; left {
			ordered = append(ordered, r)
			delete(byName, r.Check)
		}
	}
	return ordered
}

// aggregate folds ordered results into a composite on the 0-100 scale.
// Only valid results contribute. A source with zero valid results scores
// 0.0 and is marked insufficient so consumers can tell "untrustworthy"
// from "unscoreable".
func aggregate(ordered []CheckResult, scheme *WeightingScheme) (composite float64, insufficient bool) {
	var sum, totalWeight float64
	var valid int

	for _, r := range ordered {
		if !r.Valid {
			continue
		}
		w, ok := scheme.Lookup(r.Check)
		if !ok {
			w = FallbackWeight
		}
		sum += r.Score * w
		totalWeight += w
		valid++
	}

	if valid == 0 || totalWeight == 0 {
		return 0, true
	}
	return 100 * sum / totalWeight, false
}
