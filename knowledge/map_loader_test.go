package knowledge_test

import (
	"testing"

	"github.com/memtide/memtide/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentFromMaps(t *testing.T) {
	doc := knowledge.DocumentFromMaps("team facts", []map[string]any{
		{"content": "standups happen at 9:30", "owner": "infra"},
		{"title": "Release cadence", "description": "we ship every other Tuesday"},
	})

	require.NotEmpty(t, doc.ID)
	assert.Equal(t, "team facts", doc.Source.Title)
	assert.Equal(t, knowledge.SourceTypeMap, doc.Source.Type)
	require.Len(t, doc.Chunks, 2)

	assert.Equal(t, "standups happen at 9:30", doc.Chunks[0].Text)
	assert.Equal(t, 0, doc.Chunks[0].Seq)
	assert.Equal(t, doc.ID, doc.Chunks[0].DocumentID)

	// Standard fields join in priority order.
	assert.Equal(t, "we ship every other Tuesday Release cadence", doc.Chunks[1].Text)

	// The source map rides along as chunk metadata.
	assert.Equal(t, "infra", doc.Chunks[0].Metadata["owner"])
}

func TestDocumentFromMaps_FallbackToAllStrings(t *testing.T) {
	doc := knowledge.DocumentFromMaps("misc", []map[string]any{
		{"zeta": "last", "alpha": "first", "count": 3},
	})

	require.Len(t, doc.Chunks, 1)
	// No standard fields, so every string value joins in key order.
	assert.Equal(t, "alpha: first zeta: last", doc.Chunks[0].Text)
}

func TestDocumentFromMaps_SkipsEmptyItems(t *testing.T) {
	doc := knowledge.DocumentFromMaps("sparse", []map[string]any{
		{"count": 1},
		{},
		{"content": "the only real entry"},
	})

	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "the only real entry", doc.Chunks[0].Text)
	assert.Equal(t, 0, doc.Chunks[0].Seq)
}
