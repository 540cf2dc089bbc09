package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfti/trustindex/pkg/trust"
)

func testScore(id string, composite float64, grade trust.Grade, at time.Time) trust.CompositeScore {
	return trust.CompositeScore{
		SourceID:   id,
		SourceType: trust.SourceTypeRegulatoryRegistry,
		Composite:  composite,
		Grade:      grade,
		Confidence: 1,
		Checks: []trust.CheckResult{
			{Check: "completeness", Score: composite / 100, Class: trust.ClassQuality, Valid: true},
		},
		ComputedAt: at,
	}
}

func TestSaveScores_AndLatest(t *testing.T) {
	db := setupTestDB(t)
	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	require.NoError(t, SaveScores(db, "run-1", []trust.CompositeScore{
		testScore("fca-001", 92, trust.GradeA, day1),
		testScore("seedrs-001", 55, trust.GradeD, day1),
	}))
	require.NoError(t, SaveScores(db, "run-2", []trust.CompositeScore{
		testScore("fca-001", 88, trust.GradeB, day2),
	}))

	latest, err := GetLatestScores(db)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	// Ordered by source id; fca-001 reflects the newer run.
	assert.Equal(t, "fca-001", latest[0].SourceID)
	assert.Equal(t, "run-2", latest[0].RunID)
	assert.InDelta(t, 88, latest[0].Composite, 0.0001)
	assert.Equal(t, trust.GradeB, latest[0].Grade)
	require.Len(t, latest[0].Checks, 1)
	assert.Equal(t, "completeness", latest[0].Checks[0].Check)

	assert.Equal(t, "seedrs-001", latest[1].SourceID)
	assert.Equal(t, trust.GradeD, latest[1].Grade)
}

func TestSaveScores_RequiresRunID(t *testing.T) {
	db := setupTestDB(t)
	err := SaveScores(db, "", []trust.CompositeScore{testScore("x", 50, trust.GradeD, time.Now())})
	assert.Error(t, err)
}

func TestGetScoreHistory(t *testing.T) {
	db := setupTestDB(t)
	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, runID := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, SaveScores(db, runID, []trust.CompositeScore{
			testScore("fca-001", float64(80+i), trust.GradeB, day1.Add(time.Duration(i)*24*time.Hour)),
		}))
	}

	history, err := GetScoreHistory(db, "fca-001", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-3", history[0].RunID)
	assert.Equal(t, "run-2", history[1].RunID)
}

func TestGetRanking(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, SaveScores(db, "run-1", []trust.CompositeScore{
		testScore("mid", 70, trust.GradeC, at),
		testScore("top", 95, trust.GradeA, at),
		testScore("low", 30, trust.GradeF, at),
		testScore("tie", 70, trust.GradeC, at),
	}))

	ranking, err := GetRanking(db, 3)
	require.NoError(t, err)
	require.Len(t, ranking, 3)
	assert.Equal(t, "top", ranking[0].SourceID)
	// Equal composites rank by source id.
	assert.Equal(t, "mid", ranking[1].SourceID)
	assert.Equal(t, "tie", ranking[2].SourceID)
}

func TestGetGradeDistribution(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, SaveScores(db, "run-1", []trust.CompositeScore{
		testScore("a1", 95, trust.GradeA, at),
		testScore("a2", 91, trust.GradeA, at),
		testScore("c1", 65, trust.GradeC, at),
	}))

	dist, err := GetGradeDistribution(db)
	require.NoError(t, err)
	assert.Equal(t, 2, dist[trust.GradeA])
	assert.Equal(t, 1, dist[trust.GradeC])
	assert.Zero(t, dist[trust.GradeF])
}

func TestGetSummary(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, SaveSources(db, []trust.SourceRecord{
		testRecord("a1", trust.SourceTypeRegulatoryRegistry),
		testRecord("c1", trust.SourceTypeCrowdfunding),
		testRecord("hollow", trust.SourceTypeOther),
		testRecord("unscored", trust.SourceTypeOther),
	}))

	hollow := testScore("hollow", 0, trust.GradeF, at)
	hollow.Insufficient = true
	hollow.Confidence = 0

	require.NoError(t, SaveScores(db, "run-1", []trust.CompositeScore{
		testScore("a1", 90, trust.GradeA, at),
		testScore("c1", 70, trust.GradeC, at),
		hollow,
	}))

	s, err := GetSummary(db)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Sources)
	assert.Equal(t, 3, s.Scored)
	assert.Equal(t, 1, s.Insufficient)
	// Insufficient sources are excluded from the average and range.
	assert.InDelta(t, 80, s.Average, 0.0001)
	assert.InDelta(t, 70, s.Min, 0.0001)
	assert.InDelta(t, 90, s.Max, 0.0001)
	assert.Equal(t, 1, s.Grades[trust.GradeA])
	assert.Equal(t, 1, s.Grades[trust.GradeF])
}
