package vector_test

import (
	"testing"

	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_QueryOrdersByCosine(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "x", "x axis", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "y", "y axis", []float32{0, 1}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "diag", "diagonal", []float32{1, 1}, nil))

	hits, err := idx.Query(t.Context(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "diag", hits[1].ID)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)
	assert.Equal(t, "y", hits[2].ID)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
}

func TestMemoryIndex_QueryValidation(t *testing.T) {
	idx := vector.NewMemoryIndex()

	_, err := idx.Query(t.Context(), []float32{1}, 0, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = idx.Query(t.Context(), nil, 3, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestMemoryIndex_UpsertValidation(t *testing.T) {
	idx := vector.NewMemoryIndex()

	assert.ErrorIs(t, idx.Upsert(t.Context(), "", "text", []float32{1}, nil), errors.ErrInvalidArgument)
	assert.ErrorIs(t, idx.Upsert(t.Context(), "a", "text", nil, nil), errors.ErrInvalidArgument)

	require.NoError(t, idx.Upsert(t.Context(), "a", "text", []float32{1, 0}, nil))
	assert.Error(t, idx.Upsert(t.Context(), "b", "text", []float32{1, 0, 0}, nil))
}

func TestMemoryIndex_TiesResolveToEarliestInsertion(t *testing.T) {
	idx := vector.NewMemoryIndex()

	// Identical vectors, so every score ties and insertion order decides.
	require.NoError(t, idx.Upsert(t.Context(), "first", "a", []float32{1, 1}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "second", "b", []float32{1, 1}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "third", "c", []float32{1, 1}, nil))

	hits, err := idx.Query(t.Context(), []float32{1, 1}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "second", hits[1].ID)
}

func TestMemoryIndex_UpsertKeepsInsertionRank(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "first", "a", []float32{1, 1}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "second", "b", []float32{1, 1}, nil))

	// Re-upserting "first" must not demote it behind "second" on ties.
	require.NoError(t, idx.Upsert(t.Context(), "first", "a2", []float32{1, 1}, nil))

	hits, err := idx.Query(t.Context(), []float32{1, 1}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "a2", hits[0].Text)

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryIndex_DeleteIsIdempotent(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "a", "a", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(t.Context(), "b", "b", []float32{0, 1}, nil))

	require.NoError(t, idx.Delete(t.Context(), "a"))
	require.NoError(t, idx.Delete(t.Context(), "a"))
	require.NoError(t, idx.Delete(t.Context(), "missing"))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := idx.Query(t.Context(), []float32{0, 1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestMemoryIndex_QueryFilter(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "a", "a", []float32{1, 0}, map[string]any{"document_id": "doc-1"}))
	require.NoError(t, idx.Upsert(t.Context(), "b", "b", []float32{1, 0}, map[string]any{"document_id": "doc-2"}))

	hits, err := idx.Query(t.Context(), []float32{1, 0}, 5, map[string]any{"document_id": "doc-2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)

	// A filter key no entry carries matches nothing.
	hits, err = idx.Query(t.Context(), []float32{1, 0}, 5, map[string]any{"missing": true})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndex_ZeroVectorScoresZero(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "zero", "zero", []float32{0, 0}, nil))

	hits, err := idx.Query(t.Context(), []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].Score)
}

func TestMemoryIndex_Clear(t *testing.T) {
	idx := vector.NewMemoryIndex()

	require.NoError(t, idx.Upsert(t.Context(), "a", "a", []float32{1}, nil))
	require.NoError(t, idx.Clear(t.Context()))

	count, err := idx.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)

	hits, err := idx.Query(t.Context(), []float32{1}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
