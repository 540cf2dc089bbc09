package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lfti/trustindex/pkg/trust"
)

const (
	insertSourceSQL = `INSERT INTO source (
			id,
			type,
			fields,
			collected_at,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = ?,
			fields = ?,
			collected_at = ?,
			updated_at = ?
	`

	selectSourceSQL = `SELECT
			id,
			type,
			fields,
			collected_at
		FROM source
		WHERE id = ?
	`

	selectSourcesSQL = `SELECT
			id,
			type,
			fields,
			collected_at
		FROM source
		WHERE type = COALESCE(?, type)
		ORDER BY id
	`

	countSourcesSQL = `SELECT COUNT(*) FROM source`
)

// SaveSources upserts the given records in a single transaction.
func SaveSources(db *sql.DB, recs []trust.SourceRecord) error {
	if db == nil {
		return errDBNotInitialized
	}
	if len(recs) == 0 {
		return nil
	}

	stmt, err := db.Prepare(insertSourceSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare source insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC()
	for i, rec := range recs {
		if rec.ID == "" {
			rollbackTransaction(tx)
			return fmt.Errorf("source[%d] has no id", i)
		}
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to serialize fields for source %s: %w", rec.ID, err)
		}
		if _, err = tx.Stmt(stmt).Exec(
			rec.ID, rec.Type, string(fields), rec.CollectedAt, now,
			rec.Type, string(fields), rec.CollectedAt, now); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting source[%d] %s: %w", i, rec.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSource returns one record by id, or nil when not found.
func GetSource(db *sql.DB, id string) (*trust.SourceRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	row := db.QueryRow(selectSourceSQL, id)
	rec, err := scanSource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return rec, nil
}

// GetSources returns all records, optionally filtered by source type.
func GetSources(db *sql.DB, sourceType string) ([]trust.SourceRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var filter any
	if sourceType != "" {
		filter = sourceType
	}

	rows, err := db.Query(selectSourcesSQL, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	list := make([]trust.SourceRecord, 0)
	for rows.Next() {
		rec, err := scanSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

// CountSources returns the number of stored sources.
func CountSources(db *sql.DB) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	var n int
	if err := db.QueryRow(countSourcesSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return n, nil
}

func scanSource(scan func(...any) error) (*trust.SourceRecord, error) {
	var (
		rec       trust.SourceRecord
		rawType   string
		rawFields string
	)
	if err := scan(&rec.ID, &rawType, &rawFields, &rec.CollectedAt); err != nil {
		return nil, err
	}
	rec.Type = trust.ParseSourceType(rawType)
	if err := json.Unmarshal([]byte(rawFields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("failed to deserialize fields for %s: %w", rec.ID, err)
	}
	return &rec, nil
}
