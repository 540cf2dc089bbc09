package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lfti/trustindex/pkg/trust"
)

const (
	insertScoreSQL = `INSERT INTO score (
			source_id,
			run_id,
			source_type,
			composite,
			grade,
			insufficient,
			confidence,
			checks,
			computed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, run_id) DO UPDATE SET
			composite = ?,
			grade = ?,
			insufficient = ?,
			confidence = ?,
			checks = ?,
			computed_at = ?
	`

	selectLatestScoresSQL = `SELECT
			s.source_id,
			s.run_id,
			s.source_type,
			s.composite,
			s.grade,
			s.insufficient,
			s.confidence,
			s.checks,
			s.computed_at
		FROM score s
		JOIN (
			SELECT source_id, MAX(computed_at) AS computed_at
			FROM score
			GROUP BY source_id
		) latest ON s.source_id = latest.source_id
		AND s.computed_at = latest.computed_at
		ORDER BY s.source_id
	`

	selectRankingSQL = `SELECT
			s.source_id,
			s.source_type,
			s.composite,
			s.grade,
			s.computed_at
		FROM score s
		JOIN (
			SELECT source_id, MAX(computed_at) AS computed_at
			FROM score
			GROUP BY source_id
		) latest ON s.source_id = latest.source_id
		AND s.computed_at = latest.computed_at
		ORDER BY s.composite DESC, s.source_id
		LIMIT ?
	`

	selectGradeDistributionSQL = `SELECT
			s.grade,
			COUNT(*) AS sources
		FROM score s
		JOIN (
			SELECT source_id, MAX(computed_at) AS computed_at
			FROM score
			GROUP BY source_id
		) latest ON s.source_id = latest.source_id
		AND s.computed_at = latest.computed_at
		GROUP BY s.grade
	`

	selectScoreHistorySQL = `SELECT
			source_id,
			run_id,
			source_type,
			composite,
			grade,
			insufficient,
			confidence,
			checks,
			computed_at
		FROM score
		WHERE source_id = ?
		ORDER BY computed_at DESC
		LIMIT ?
	`
)

// RankingItem is one row of the trust ranking.
type RankingItem struct {
	SourceID   string           `json:"source_id" yaml:"sourceId"`
	SourceType trust.SourceType `json:"source_type" yaml:"sourceType"`
	Composite  float64          `json:"composite" yaml:"composite"`
	Grade      trust.Grade      `json:"grade" yaml:"grade"`
	ComputedAt time.Time        `json:"computed_at" yaml:"computedAt"`
}

// Summary aggregates the latest score per source into dashboard counters.
// Average, Min, and Max cover scoreable sources only; insufficient ones
// are counted separately so they don't drag the numbers down.
type Summary struct {
	Sources      int                 `json:"sources" yaml:"sources"`
	Scored       int                 `json:"scored" yaml:"scored"`
	Insufficient int                 `json:"insufficient" yaml:"insufficient"`
	Average      float64             `json:"average_composite" yaml:"averageComposite"`
	Min          float64             `json:"min_composite" yaml:"minComposite"`
	Max          float64             `json:"max_composite" yaml:"maxComposite"`
	Grades       map[trust.Grade]int `json:"grades" yaml:"grades"`
}

// SaveScores upserts one run's scores in a single transaction.
func SaveScores(db *sql.DB, runID string, scores []trust.CompositeScore) error {
	if db == nil {
		return errDBNotInitialized
	}
	if runID == "" {
		return fmt.Errorf("runID required")
	}
	if len(scores) == 0 {
		return nil
	}

	stmt, err := db.Prepare(insertScoreSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare score insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, cs := range scores {
		checks, err := json.Marshal(cs.Checks)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to serialize checks for %s: %w", cs.SourceID, err)
		}
		if _, err = tx.Stmt(stmt).Exec(
			cs.SourceID, runID, cs.SourceType, cs.Composite, cs.Grade,
			cs.Insufficient, cs.Confidence, string(checks), cs.ComputedAt,
			cs.Composite, cs.Grade, cs.Insufficient, cs.Confidence,
			string(checks), cs.ComputedAt); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting score[%d] %s: %w", i, cs.SourceID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetLatestScores returns the most recent score per source, ordered by id.
func GetLatestScores(db *sql.DB) ([]trust.CompositeScore, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	return queryScores(db, selectLatestScoresSQL)
}

// GetScoreHistory returns a source's scores, newest first.
func GetScoreHistory(db *sql.DB, sourceID string, limit int) ([]trust.CompositeScore, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	return queryScores(db, selectScoreHistorySQL, sourceID, limit)
}

// GetRanking returns sources ordered by composite score, best first.
// Ties break on source id so the ranking is stable.
func GetRanking(db *sql.DB, limit int) ([]RankingItem, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(selectRankingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	list := make([]RankingItem, 0)
	for rows.Next() {
		var (
			it      RankingItem
			rawType string
			grade   string
		)
		if err := rows.Scan(&it.SourceID, &rawType, &it.Composite, &grade, &it.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		it.SourceType = trust.ParseSourceType(rawType)
		it.Grade = trust.Grade(grade)
		list = append(list, it)
	}
	return list, rows.Err()
}

// GetGradeDistribution returns the number of sources at each grade,
// counting each source's latest score only.
func GetGradeDistribution(db *sql.DB) (map[trust.Grade]int, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectGradeDistributionSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query grade distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[trust.Grade]int)
	for rows.Next() {
		var (
			grade string
			n     int
		)
		if err := rows.Scan(&grade, &n); err != nil {
			return nil, fmt.Errorf("failed to scan grade row: %w", err)
		}
		dist[trust.Grade(grade)] = n
	}
	return dist, rows.Err()
}

// GetSummary builds the dashboard summary from the latest scores.
func GetSummary(db *sql.DB) (*Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	sources, err := CountSources(db)
	if err != nil {
		return nil, err
	}

	latest, err := GetLatestScores(db)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Sources: sources,
		Scored:  len(latest),
		Grades:  make(map[trust.Grade]int),
	}

	var sum float64
	first := true
	for _, cs := range latest {
		s.Grades[cs.Grade]++
		if cs.Insufficient {
			s.Insufficient++
			continue
		}
		sum += cs.Composite
		if first || cs.Composite < s.Min {
			s.Min = cs.Composite
		}
		if first || cs.Composite > s.Max {
			s.Max = cs.Composite
		}
		first = false
	}
	if scored := s.Scored - s.Insufficient; scored > 0 {
		s.Average = sum / float64(scored)
	}
	return s, nil
}

func queryScores(db *sql.DB, q string, args ...any) ([]trust.CompositeScore, error) {
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	list := make([]trust.CompositeScore, 0)
	for rows.Next() {
		var (
			cs        trust.CompositeScore
			rawType   string
			grade     string
			rawChecks string
		)
		if err := rows.Scan(&cs.SourceID, &cs.RunID, &rawType, &cs.Composite,
			&grade, &cs.Insufficient, &cs.Confidence, &rawChecks, &cs.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		cs.SourceType = trust.ParseSourceType(rawType)
		cs.Grade = trust.Grade(grade)
		if err := json.Unmarshal([]byte(rawChecks), &cs.Checks); err != nil {
			return nil, fmt.Errorf("failed to deserialize checks for %s: %w", cs.SourceID, err)
		}
		list = append(list, cs)
	}
	return list, rows.Err()
}
