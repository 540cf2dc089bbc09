package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfti/trustindex/pkg/trust"
)

func testRecord(id string, st trust.SourceType) trust.SourceRecord {
	return trust.SourceRecord{
		ID:   id,
		Type: st,
		Fields: map[string]any{
			"name": "Source " + id,
			"url":  "https://example.com/" + id,
		},
		CollectedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetSource(t *testing.T) {
	db := setupTestDB(t)

	rec := testRecord("fca-001", trust.SourceTypeRegulatoryRegistry)
	require.NoError(t, SaveSources(db, []trust.SourceRecord{rec}))

	got, err := GetSource(db, "fca-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Type, got.Type)
	assert.Equal(t, "Source fca-001", got.Fields["name"])
	assert.WithinDuration(t, rec.CollectedAt, got.CollectedAt, time.Second)
}

func TestGetSource_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := GetSource(db, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveSources_Upsert(t *testing.T) {
	db := setupTestDB(t)

	rec := testRecord("fca-001", trust.SourceTypeRegulatoryRegistry)
	require.NoError(t, SaveSources(db, []trust.SourceRecord{rec}))

	rec.Fields["name"] = "Renamed"
	rec.CollectedAt = rec.CollectedAt.Add(24 * time.Hour)
	require.NoError(t, SaveSources(db, []trust.SourceRecord{rec}))

	got, err := GetSource(db, "fca-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Fields["name"])

	n, err := CountSources(db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveSources_RejectsMissingID(t *testing.T) {
	db := setupTestDB(t)
	err := SaveSources(db, []trust.SourceRecord{{Type: trust.SourceTypeOther}})
	assert.Error(t, err)
}

func TestGetSources_TypeFilter(t *testing.T) {
	db := setupTestDB(t)

	recs := []trust.SourceRecord{
		testRecord("fca-001", trust.SourceTypeRegulatoryRegistry),
		testRecord("seedrs-001", trust.SourceTypeCrowdfunding),
		testRecord("seedrs-002", trust.SourceTypeCrowdfunding),
	}
	require.NoError(t, SaveSources(db, recs))

	all, err := GetSources(db, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cf, err := GetSources(db, string(trust.SourceTypeCrowdfunding))
	require.NoError(t, err)
	require.Len(t, cf, 2)
	assert.Equal(t, "seedrs-001", cf[0].ID)
	assert.Equal(t, "seedrs-002", cf[1].ID)
}
