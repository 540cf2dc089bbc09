package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	insertRunSQL = `INSERT INTO run (id, started_at) VALUES (?, ?)`

	completeRunSQL = `UPDATE run SET
			completed_at = ?,
			sources = ?,
			insufficient = ?
		WHERE id = ?
	`

	selectRunSQL = `SELECT
			id,
			started_at,
			completed_at,
			sources,
			insufficient
		FROM run
		WHERE id = ?
	`

	selectRunsSQL = `SELECT
			id,
			started_at,
			completed_at,
			sources,
			insufficient
		FROM run
		ORDER BY started_at DESC
		LIMIT ?
	`
)

// Run records one scoring pass over the stored sources.
type Run struct {
	ID           string     `json:"id" yaml:"id"`
	StartedAt    time.Time  `json:"started_at" yaml:"startedAt"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" yaml:"completedAt,omitempty"`
	Sources      int        `json:"sources" yaml:"sources"`
	Insufficient int        `json:"insufficient" yaml:"insufficient"`
}

// StartRun records the beginning of a scoring pass.
func StartRun(db *sql.DB, id string, startedAt time.Time) error {
	if db == nil {
		return errDBNotInitialized
	}
	if id == "" {
		return errors.New("run id required")
	}
	if _, err := db.Exec(insertRunSQL, id, startedAt); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", id, err)
	}
	return nil
}

// CompleteRun records the end of a scoring pass with its counters.
func CompleteRun(db *sql.DB, id string, completedAt time.Time, sources, insufficient int) error {
	if db == nil {
		return errDBNotInitialized
	}
	if _, err := db.Exec(completeRunSQL, completedAt, sources, insufficient, id); err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return nil
}

// GetRun returns one run by id, or nil when not found.
func GetRun(db *sql.DB, id string) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var r Run
	err := db.QueryRow(selectRunSQL, id).Scan(
		&r.ID, &r.StartedAt, &r.CompletedAt, &r.Sources, &r.Insufficient)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &r, nil
}

// GetRuns returns recent runs, newest first.
func GetRuns(db *sql.DB, limit int) ([]Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.CompletedAt, &r.Sources, &r.Insufficient); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}
