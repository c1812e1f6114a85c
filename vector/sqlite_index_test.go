//go:build !without_sqlite

package vector_test

import (
	"path/filepath"
	"testing"

	"github.com/memtide/memtide/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSqliteIndex(t *testing.T, dbPath string) *vector.SqliteIndex {
	t.Helper()

	idx, err := vector.NewSqliteIndex(dbPath, 3)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idx.Close()
	})
	return idx
}

func TestSqliteIndex_UpsertQueryDelete(t *testing.T) {
	idx := newTestSqliteIndex(t, filepath.Join(t.TempDir(), "index.db"))

	require.NoError(t, idx.Upsert(t.Context(), "x", "x axis", []float32{1, 0, 0}, map[string]any{"document_id": "doc-1"}))
	require.NoError(t, idx.Upsert(t.Context(), "y", "y axis", []float32{0, 1, 0}, nil))

	hits, err := idx.Query(t.Context(), []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "doc-1", hits[0].Metadata["document_id"])

	require.NoError(t, idx.Delete(t.Context(), "x"))
	require.NoError(t, idx.Delete(t.Context(), "x"))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSqliteIndex_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	idx, err := vector.NewSqliteIndex(dbPath, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(t.Context(), "a", "persisted entry", []float32{0, 0, 1}, nil))
	require.NoError(t, idx.Close())

	reopened := newTestSqliteIndex(t, dbPath)

	hits, err := reopened.Query(t.Context(), []float32{0, 0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "persisted entry", hits[0].Text)
}

func TestSqliteIndex_FirstUpsertOnFreshDatabase(t *testing.T) {
	idx := newTestSqliteIndex(t, filepath.Join(t.TempDir(), "index.db"))

	// The very first insert exercises rank assignment on an empty table.
	require.NoError(t, idx.Upsert(t.Context(), "x", "first entry", []float32{1, 0, 0}, nil))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSqliteIndex_RepeatedUpsertsReplace(t *testing.T) {
	idx := newTestSqliteIndex(t, filepath.Join(t.TempDir(), "index.db"))

	require.NoError(t, idx.Upsert(t.Context(), "a", "original", []float32{1, 0, 0}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "b", "other", []float32{0, 1, 0}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "a", "rewritten", []float32{1, 0, 0}, nil))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := idx.Query(t.Context(), []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "rewritten", hits[0].Text)
}

func TestSqliteIndex_Clear(t *testing.T) {
	idx := newTestSqliteIndex(t, filepath.Join(t.TempDir(), "index.db"))

	require.NoError(t, idx.Upsert(t.Context(), "a", "a", []float32{1, 0, 0}, nil))
	require.NoError(t, idx.Clear(t.Context()))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}
