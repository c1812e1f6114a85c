package knowledge_test

import (
	"strings"
	"testing"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ShortTextStaysWhole(t *testing.T) {
	chunker := knowledge.NewChunker(nil)

	chunks := chunker.Split("a short note")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short note", chunks[0])
}

func TestChunker_EmptyText(t *testing.T) {
	chunker := knowledge.NewChunker(nil)

	assert.Nil(t, chunker.Split(""))
	assert.Nil(t, chunker.Split("   \n\n  "))
}

func TestChunker_SplitsOnHeadings(t *testing.T) {
	conf := &config.KnowledgeConfig{ChunkTargetSize: 60, ChunkMaxSize: 80}
	chunker := knowledge.NewChunker(conf)

	text := "# Setup\n" + strings.Repeat("install the dependencies first. ", 3) + "\n" +
		"# Usage\n" + strings.Repeat("run the binary with a config file. ", 3)
	chunks := chunker.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Contains(t, chunks[0], "# Setup")
	found := false
	for _, c := range chunks {
		if strings.Contains(c, "# Usage") {
			found = true
		}
	}
	assert.True(t, found, "heading should start a new chunk")
}

func TestChunker_RespectsMaxSize(t *testing.T) {
	conf := &config.KnowledgeConfig{ChunkTargetSize: 50, ChunkMaxSize: 70}
	chunker := knowledge.NewChunker(conf)

	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "this line is about forty characters long")
	}
	chunks := chunker.Split(strings.Join(lines, "\n"))

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		// A single line may exceed the target but is never cut mid-line.
		assert.LessOrEqual(t, len(c), 90)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunker_MergesSmallParagraphs(t *testing.T) {
	conf := &config.KnowledgeConfig{ChunkTargetSize: 200, ChunkMaxSize: 100}
	chunker := knowledge.NewChunker(conf)

	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph\n\n" +
		strings.Repeat("padding to push the text over the maximum size. ", 4)
	chunks := chunker.Split(text)

	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "first paragraph")
	assert.Contains(t, chunks[0], "second paragraph")
}
