package trust

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// CompositeScore is the scored record the dashboard and export layers
// consume. One is emitted per input source, always.
type CompositeScore struct {
	SourceID     string        `json:"source_id" yaml:"sourceId"`
	SourceType   SourceType    `json:"source_type" yaml:"sourceType"`
	Composite    float64       `json:"composite" yaml:"composite"`
	Grade        Grade         `json:"grade" yaml:"grade"`
	Checks       []CheckResult `json:"checks" yaml:"checks"`
	Insufficient bool          `json:"insufficient" yaml:"insufficient"`
	Confidence   float64       `json:"confidence" yaml:"confidence"`
	RunID        string        `json:"run_id,omitempty" yaml:"runId,omitempty"`
	ComputedAt   time.Time     `json:"computed_at" yaml:"computedAt"`
}

// Scorer runs the registered checks over source records, aggregates the
// sub-scores under its weighting scheme, and grades the result. All inputs
// are validated at construction; scoring itself cannot fail.
type Scorer struct {
	scheme *WeightingScheme
	scale  *GradeScale
	checks []Check
}

// NewScorer builds a scorer. Configuration problems surface here,
// before any source is processed.
func NewScorer(scheme *WeightingScheme, scale *GradeScale, checks []Check) (*Scorer, error) {
	if scheme == nil {
		return nil, fmt.Errorf("%w: weighting scheme required", ErrInvalidConfig)
	}
	if scale == nil {
		return nil, fmt.Errorf("%w: grade scale required", ErrInvalidConfig)
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: at least one check required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(checks))
	for _, c := range checks {
		if seen[c.Name()] {
			return nil, fmt.Errorf("%w: duplicate check registration %q", ErrInvalidConfig, c.Name())
		}
		seen[c.Name()] = true
	}
	return &Scorer{scheme: scheme, scale: scale, checks: checks}, nil
}

// Score audits one record. A panicking check is contained: it is recorded
// as an invalid result with a diagnostic note and the remaining checks
// still run.
func (s *Scorer) Score(rec SourceRecord, asOf time.Time) CompositeScore {
	results := make([]CheckResult, 0, len(s.checks))
	for _, c := range s.checks {
		results = append(results, runCheck(c, rec, asOf))
	}

	ordered := orderResults(results, s.scheme)
	composite, insufficient := aggregate(ordered, s.scheme)

	var valid int
	for _, r := range ordered {
		if r.Valid {
			valid++
		}
	}

	return CompositeScore{
		SourceID:     rec.ID,
		SourceType:   rec.Type,
		Composite:    composite,
		Grade:        s.scale.Assign(composite),
		Checks:       ordered,
		Insufficient: insufficient,
		Confidence:   float64(valid) / float64(len(ordered)),
		ComputedAt:   asOf,
	}
}

// ScoreBatch scores records concurrently, one output per input in input
// order. Sources are independent so the batch parallelizes freely; a
// cancelled context stops submitting further sources and returns the
// context error - an in-flight source is never interrupted mid-score.
func (s *Scorer) ScoreBatch(ctx context.Context, recs []SourceRecord, asOf time.Time) ([]CompositeScore, error) {
	scores := make([]CompositeScore, len(recs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.Go(func() error {
			scores[i] = s.Score(rec, asOf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Rescore recomputes only the changed records and merges the fresh scores
// into the existing set, preserving its order. Changed sources not yet in
// the set are appended in input order. Used for incremental dashboard
// refresh.
func (s *Scorer) Rescore(ctx context.Context, existing []CompositeScore, changed []SourceRecord, asOf time.Time) ([]CompositeScore, error) {
	fresh, err := s.ScoreBatch(ctx, changed, asOf)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]CompositeScore, len(fresh))
	for _, cs := range fresh {
		byID[cs.SourceID] = cs
	}

	merged := make([]CompositeScore, 0, len(existing)+len(fresh))
	for _, cs := range existing {
		if updated, ok := byID[cs.SourceID]; ok {
			merged = append(merged, updated)
			delete(byID, cs.SourceID)
			continue
		}
		merged = append(merged, cs)
	}
	for _, cs := range fresh {
		if _, pending := byID[cs.SourceID]; pending {
			merged = append(merged, cs)
			delete(byID, cs.SourceID)
		}
	}
	return merged, nil
}

// runCheck isolates a single check execution.
func runCheck(c Check, rec SourceRecord, asOf time.Time) (res CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("check faulted", "check", c.Name(), "source", rec.ID, "cause", r)
			res = faulted(c.Name(), c.Class(), r)
		}
	}()
	return c.Evaluate(rec, asOf)
}
