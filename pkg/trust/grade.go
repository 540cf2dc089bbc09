package trust

import (
	"fmt"
	"math"
	"sort"
)

// Grade is the letter grade assigned to a composite score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

var knownGrades = map[Grade]bool{
	GradeA: true, GradeB: true, GradeC: true, GradeD: true, GradeF: true,
}

// GradeBand maps composites at or above Min to Grade. Bands are closed on
// the low end and open on the high end, except the top band which also
// includes 100.
type GradeBand struct {
	Grade Grade   `json:"grade" yaml:"grade"`
	Min   float64 `json:"min" yaml:"min"`
}

// GradeScale is a validated, immutable set of grade bands covering
// [0,100] exactly.
type GradeScale struct {
	bands []GradeBand // sorted by Min descending
}

// NewGradeScale validates bands: known grades, no duplicates, finite
// bounds inside [0,100], distinct minimums, and a band anchored at 0 so
// every composite lands somewhere. Anything else refuses to load.
func NewGradeScale(bands []GradeBand) (*GradeScale, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: grade scale is empty", ErrInvalidConfig)
	}

	sorted := make([]GradeBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	seen := make(map[Grade]bool, len(sorted))
	for i, b := range sorted {
		if !knownGrades[b.Grade] {
			return nil, fmt.Errorf("%w: unknown grade %q", ErrInvalidConfig, b.Grade)
		}
		if seen[b.Grade] {
			return nil, fmt.Errorf("%w: duplicate grade %q", ErrInvalidConfig, b.Grade)
		}
		seen[b.Grade] = true
		if math.IsNaN(b.Min) || b.Min < 0 || b.Min > 100 {
			return nil, fmt.Errorf("%w: grade %q minimum %v outside [0,100]", ErrInvalidConfig, b.Grade, b.Min)
		}
		if i > 0 && sorted[i-1].Min == b.Min {
			return nil, fmt.Errorf("%w: grades %q and %q share minimum %v", ErrInvalidConfig, sorted[i-1].Grade, b.Grade, b.Min)
		}
	}

	if sorted[len(sorted)-1].Min != 0 {
		return nil, fmt.Errorf("%w: grade scale does not cover down to 0", ErrInvalidConfig)
	}

	return &GradeScale{bands: sorted}, nil
}

// DefaultGradeBands is the stock A-F scale.
func DefaultGradeBands() []GradeBand {
	return []GradeBand{
		{Grade: GradeA, Min: 90},
		{Grade: GradeB, Min: 75},
		{Grade: GradeC, Min: 60},
		{Grade: GradeD, Min: 40},
		{Grade: GradeF, Min: 0},
	}
}

// Assign maps a composite to its grade. Composites are expected in
// [0,100]; out-of-range values are pinned to the nearest band.
func (s *GradeScale) Assign(composite float64) Grade {
	for _, b := range s.bands {
		if composite >= b.Min {
			return b.Grade
		}
	}
	return s.bands[len(s.bands)-1].Grade
}

// Bands returns the bands sorted by minimum descending.
func (s *GradeScale) Bands() []GradeBand {
	out := make([]GradeBand, len(s.bands))
	copy(out, s.bands)
	return out
}
