package cli

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfti/trustindex/pkg/trust"
)

func TestWriteScoresCSV(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	scores := []trust.CompositeScore{
		{
			SourceID:   "fca-register",
			SourceType: trust.SourceTypeRegulatoryRegistry,
			Composite:  91.25,
			Grade:      trust.GradeA,
			Confidence: 1,
			RunID:      "run-1",
			ComputedAt: at,
			Checks: []trust.CheckResult{
				{Check: "completeness", Score: 0.9, Class: trust.ClassQuality, Valid: true, Notes: []string{"9 of 10 expected fields present"}},
				{Check: "freshness", Score: 0.95, Class: trust.ClassQuality, Valid: true},
			},
		},
		{
			SourceID:     "hollow",
			SourceType:   trust.SourceTypeOther,
			Composite:    0,
			Grade:        trust.GradeF,
			Insufficient: true,
			RunID:        "run-1",
			ComputedAt:   at,
			Checks: []trust.CheckResult{
				{Check: "completeness", Class: trust.ClassQuality, Valid: false, Notes: []string{"no fields collected"}},
				{Check: "freshness", Class: trust.ClassQuality, Valid: false, Notes: []string{"collection timestamp missing"}},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeScoresCSV(&buf, scores))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, []string{
		"source_id", "source_type", "composite", "grade", "confidence", "insufficient",
		"completeness", "freshness", "notes", "run_id", "computed_at",
	}, header)

	first := rows[1]
	assert.Equal(t, "fca-register", first[0])
	assert.Equal(t, "regulatory-registry", first[1])
	assert.Equal(t, "91.25", first[2])
	assert.Equal(t, "A", first[3])
	assert.Equal(t, "false", first[5])
	assert.Equal(t, "0.9000", first[6])
	assert.Equal(t, "0.9500", first[7])
	assert.Contains(t, first[8], "9 of 10")
	assert.Equal(t, "run-1", first[9])
	assert.Equal(t, "2025-06-01T12:00:00Z", first[10])

	second := rows[2]
	assert.Equal(t, "hollow", second[0])
	assert.Equal(t, "true", second[5])
	// Invalid checks export as blank cells, not zeros.
	assert.Empty(t, second[6])
	assert.Empty(t, second[7])
	assert.Contains(t, second[8], "no fields collected")
}

func TestWriteScoresCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeScoresCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
