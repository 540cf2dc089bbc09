package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfti/trustindex/pkg/trust"
)

func TestReadSnapshotFile_Feed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	body := `{
		"sources": [
			{"id": "fca-register", "type": "regulatory-registry", "fields": {"name": "FCA"}, "collected_at": "2025-06-01T10:00:00Z"},
			{"id": "mystery", "type": "social-media", "fields": {"name": "x"}, "collected_at": "2025-06-01T10:00:00Z"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	recs, err := readSnapshotFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, trust.SourceTypeRegulatoryRegistry, recs[0].Type)
	assert.Equal(t, "FCA", recs[0].Fields["name"])
	// Unknown source types normalize to other.
	assert.Equal(t, trust.SourceTypeOther, recs[1].Type)
}

func TestReadSnapshotFile_BareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	body := `[{"id": "seedrs", "type": "crowdfunding-platform", "fields": {"name": "Seedrs"}, "collected_at": "2025-06-01T10:00:00Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	recs, err := readSnapshotFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "seedrs", recs[0].ID)
}

func TestDropMalformed(t *testing.T) {
	recs := []trust.SourceRecord{
		{ID: "fca-register", Type: trust.SourceTypeRegulatoryRegistry},
		{Type: trust.SourceTypeOther}, // no id
		{ID: "seedrs", Type: trust.SourceTypeCrowdfunding},
	}

	kept, skipped := dropMalformed(recs)
	assert.Equal(t, 1, skipped)
	require.Len(t, kept, 2)
	assert.Equal(t, "fca-register", kept[0].ID)
	assert.Equal(t, "seedrs", kept[1].ID)
}

func TestReadSnapshotFile_Missing(t *testing.T) {
	_, err := readSnapshotFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestReadSnapshotFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := readSnapshotFile(path)
	assert.Error(t, err)
}
