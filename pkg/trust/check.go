package trust

import (
	"fmt"
	"math"
	"time"
)

// WeightClass groups checks by what they audit: record content vs the
// metadata and reliability attributes around it.
type WeightClass string

const (
	ClassQuality  WeightClass = "quality"
	ClassMetadata WeightClass = "metadata"
)

// CheckResult is the outcome of one check against one source record.
// Created once per (source, check) pair per run and never mutated.
// Valid is false when the check could not run because its prerequisite
// fields were missing - that is a quality signal, not an error.
type CheckResult struct {
	Check string      `json:"check" yaml:"check"`
	Score float64     `json:"score" yaml:"score"`
	Class WeightClass `json:"class" yaml:"class"`
	Notes []string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Valid bool        `json:"valid" yaml:"valid"`
}

// Check audits one quality dimension of a source record. Evaluate must be
// pure: no network, no disk, no shared state. The asOf time is an input so
// age-based scores stay reproducible.
type Check interface {
	Name() string
	Class() WeightClass
	Evaluate(rec SourceRecord, asOf time.Time) CheckResult
}

// result builds a valid CheckResult with the score clamped to [0,1].
func result(name string, class WeightClass, score float64, notes ...string) CheckResult {
	return CheckResult{
		Check: name,
		Score: clamp01(score),
		Class: class,
		Notes: notes,
		Valid: true,
	}
}

// skipped builds an invalid CheckResult for a check whose prerequisite
// data was missing.
func skipped(name string, class WeightClass, reason string) CheckResult {
	return CheckResult{
		Check: name,
		Score: 0,
		Class: class,
		Notes: []string{reason},
		Valid: false,
	}
}

// faulted builds an invalid CheckResult for a check that failed
// unexpectedly. The fault is contained; the batch continues.
func faulted(name string, class WeightClass, cause any) CheckResult {
	return CheckResult{
		Check: name,
		Score: 0,
		Class: class,
		Notes: []string{fmt.Sprintf("check execution fault: %v", cause)},
		Valid: false,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
