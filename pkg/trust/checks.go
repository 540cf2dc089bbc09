package trust

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Check names as referenced by weighting schemes.
const (
	CheckCompleteness = "completeness"
	CheckFreshness    = "freshness"
	CheckSchema       = "schema"
	CheckProvenance   = "provenance"
	CheckCadence      = "cadence"
	CheckReliability  = "reliability"
)

// BuiltinChecks returns the full check set in its declared order.
func BuiltinChecks(exp Expectations) []Check {
	return []Check{
		CompletenessCheck{Expectations: exp},
		FreshnessCheck{Expectations: exp},
		SchemaCheck{Expectations: exp},
		ProvenanceCheck{},
		CadenceCheck{},
		ReliabilityCheck{},
	}
}

// CompletenessCheck scores the ratio of expected fields the scraper
// actually filled.
type CompletenessCheck struct {
	Expectations Expectations
}

func (c CompletenessCheck) Name() string       { return CheckCompleteness }
func (c CompletenessCheck) Class() WeightClass { return ClassQuality }

func (c CompletenessCheck) Evaluate(rec SourceRecord, _ time.Time) CheckResult {
	if len(rec.Fields) == 0 {
		return skipped(c.Name(), c.Class(), "no fields collected")
	}
	specs := c.Expectations.ExpectedFields(rec.Type)
	if len(specs) == 0 {
		return skipped(c.Name(), c.Class(), fmt.Sprintf("no field expectations for source type %q", rec.Type))
	}

	var filled int
	var missing []string
	for _, spec := range specs {
		if _, ok := rec.Field(spec.Name); ok {
			filled++
		} else {
			missing = append(missing, spec.Name)
		}
	}

	score := float64(filled) / float64(len(specs))
	notes := []string{fmt.Sprintf("%d of %d expected fields present", filled, len(specs))}
	if len(missing) > 0 {
		sort.Strings(missing)
		notes = append(notes, "missing: "+strings.Join(missing, ", "))
	}
	return result(c.Name(), c.Class(), score, notes...)
}

// FreshnessCheck scores record age against the expected refresh interval
// for its source type: 1.0 when just collected, linearly decaying to 0 at
// one full interval of staleness.
type FreshnessCheck struct {
	Expectations Expectations
}

func (c FreshnessCheck) Name() string       { return CheckFreshness }
func (c FreshnessCheck) Class() WeightClass { return ClassQuality }

func (c FreshnessCheck) Evaluate(rec SourceRecord, asOf time.Time) CheckResult {
	if rec.CollectedAt.IsZero() {
		return skipped(c.Name(), c.Class(), "collection timestamp missing")
	}

	interval := c.Expectations.RefreshInterval(rec.Type)
	age := asOf.Sub(rec.CollectedAt)
	if age < 0 {
		age = 0
	}

	score := 1 - age.Seconds()/interval.Seconds()
	note := fmt.Sprintf("age %s against expected refresh %s", age.Round(time.Minute), interval)
	return result(c.Name(), c.Class(), score, note)
}

// SchemaCheck scores the fraction of present expected fields that conform
// to their declared format.
type SchemaCheck struct {
	Expectations Expectations
}

func (c SchemaCheck) Name() string       { return CheckSchema }
func (c SchemaCheck) Class() WeightClass { return ClassQuality }

func (c SchemaCheck) Evaluate(rec SourceRecord, _ time.Time) CheckResult {
	specs := c.Expectations.ExpectedFields(rec.Type)

	var checked, conforming int
	var bad []string
	for _, spec := range specs {
		v, ok := rec.Field(spec.Name)
		if !ok {
			continue // absence is completeness' concern, not schema's
		}
		checked++
		if conforms(v, spec.Format) {
			conforming++
		} else {
			bad = append(bad, fmt.Sprintf("%s (want %s)", spec.Name, spec.Format))
		}
	}

	if checked == 0 {
		return skipped(c.Name(), c.Class(), "no expected fields present to validate")
	}

	score := float64(conforming) / float64(checked)
	notes := []string{fmt.Sprintf("%d of %d present fields conform", conforming, checked)}
	if len(bad) > 0 {
		sort.Strings(bad)
		notes = append(notes, "nonconforming: "+strings.Join(bad, ", "))
	}
	return result(c.Name(), c.Class(), score, notes...)
}

// ProvenanceCheck scores metadata richness: whether the record says where
// it came from, how it was retrieved, and under what license.
type ProvenanceCheck struct{}

func (c ProvenanceCheck) Name() string       { return CheckProvenance }
func (c ProvenanceCheck) Class() WeightClass { return ClassMetadata }

func (c ProvenanceCheck) Evaluate(rec SourceRecord, _ time.Time) CheckResult {
	if len(rec.Fields) == 0 {
		return skipped(c.Name(), c.Class(), "no fields collected")
	}

	var score float64
	var have, lack []string

	track := func(name string, weight float64, ok bool) {
		if ok {
			score += weight
			have = append(have, name)
		} else {
			lack = append(lack, name)
		}
	}

	u, hasURL := rec.Field("source_url")
	track("source_url", 0.3, hasURL && validURL(asString(u)))
	_, hasMethod := rec.Field("retrieval_method")
	track("retrieval_method", 0.3, hasMethod)
	_, hasLicense := rec.Field("license")
	track("license", 0.3, hasLicense)

	_, hasEmail := rec.Field("email")
	_, hasPhone := rec.Field("phone")
	track("contact", 0.1, hasEmail || hasPhone)

	notes := []string{}
	if len(have) > 0 {
		notes = append(notes, "present: "+strings.Join(have, ", "))
	}
	if len(lack) > 0 {
		notes = append(notes, "absent: "+strings.Join(lack, ", "))
	}
	return result(c.Name(), c.Class(), score, notes...)
}

// CadenceCheck scores evidence that the source is maintained on a
// declared, observable update schedule.
type CadenceCheck struct{}

func (c CadenceCheck) Name() string       { return CheckCadence }
func (c CadenceCheck) Class() WeightClass { return ClassMetadata }

func (c CadenceCheck) Evaluate(rec SourceRecord, _ time.Time) CheckResult {
	if len(rec.Fields) == 0 {
		return skipped(c.Name(), c.Class(), "no fields collected")
	}

	var score float64
	var notes []string

	if _, ok := rec.Field("update_frequency"); ok {
		score += 0.4
		notes = append(notes, "update frequency declared")
	}
	if v, ok := rec.Field("last_updated"); ok && parsableDate(asString(v)) {
		score += 0.4
		notes = append(notes, "last_updated parsable")
	}
	if _, ok := rec.Field("version"); ok {
		score += 0.2
		notes = append(notes, "version info present")
	}

	if len(notes) == 0 {
		notes = append(notes, "no cadence indicators found")
	}
	return result(c.Name(), c.Class(), score, notes...)
}

// ReliabilityCheck scores historical availability from the scraper's own
// bookkeeping: successful attempts over total attempts.
type ReliabilityCheck struct{}

func (c ReliabilityCheck) Name() string       { return CheckReliability }
func (c ReliabilityCheck) Class() WeightClass { return ClassMetadata }

func (c ReliabilityCheck) Evaluate(rec SourceRecord, _ time.Time) CheckResult {
	v, ok := rec.Field("scrape_attempts")
	if !ok {
		return skipped(c.Name(), c.Class(), "no scrape attempt history")
	}
	attempts, ok := asFloat(v)
	if !ok || attempts <= 0 {
		return skipped(c.Name(), c.Class(), "scrape attempt history unusable")
	}

	var failures float64
	if e, ok := rec.Field("scrape_errors"); ok {
		if f, ok := asFloat(e); ok {
			failures = f
		}
	}

	score := (attempts - failures) / attempts
	note := fmt.Sprintf("%.0f of %.0f collection attempts succeeded", attempts-failures, attempts)
	return result(c.Name(), c.Class(), score, note)
}
