package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/memtide/memtide/knowledge"
	"github.com/memtide/memtide/llm"
	"github.com/memtide/memtide/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopReranker(t *testing.T) {
	reranker := rag.NewNoopReranker()
	candidates := []knowledge.SearchResult{
		hit("a", "first", 0.9),
		hit("b", "second", 0.8),
		hit("c", "third", 0.7),
	}

	results, err := reranker.Rerank(t.Context(), "query", candidates, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestTokenOverlapReranker(t *testing.T) {
	reranker := rag.NewTokenOverlapReranker()
	candidates := []knowledge.SearchResult{
		hit("a", "completely unrelated content", 0.9),
		hit("b", "rotate the postgres credentials weekly", 0.5),
	}

	results, err := reranker.Rerank(t.Context(), "postgres credentials rotate", candidates, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Full token overlap beats the higher retrieval score.
	assert.Equal(t, "b", results[0].ID)

	// Deterministic across runs.
	again, err := reranker.Rerank(t.Context(), "postgres credentials rotate", candidates, 10)
	require.NoError(t, err)
	assert.Equal(t, results[0].ID, again[0].ID)
	assert.Equal(t, results[0].Score, again[0].Score)
}

func TestTokenOverlapReranker_PreservesInput(t *testing.T) {
	reranker := rag.NewTokenOverlapReranker()
	candidates := []knowledge.SearchResult{
		hit("a", "alpha", 0.9),
		hit("b", "beta", 0.8),
	}

	_, err := reranker.Rerank(t.Context(), "beta", candidates, 10)
	require.NoError(t, err)
	// The caller's slice keeps its original scores and order.
	assert.Equal(t, 0.9, candidates[0].Score)
	assert.Equal(t, "a", candidates[0].ID)
}

// scriptedClient returns canned responses keyed by a substring of the
// prompt.
type scriptedClient struct {
	responses map[string]string
}

func (c *scriptedClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	for key, resp := range c.responses {
		if strings.Contains(req.Prompt, key) {
			return resp, nil
		}
	}
	return "0", nil
}

func TestLLMReranker(t *testing.T) {
	client := &scriptedClient{responses: map[string]string{
		"budget figures": "9",
		"old meeting":    "2",
	}}
	reranker := rag.NewLLMReranker(client)

	candidates := []knowledge.SearchResult{
		hit("a", "old meeting notes", 0.9),
		hit("b", "budget figures for Q3", 0.5),
	}

	results, err := reranker.Rerank(t.Context(), "what is the Q3 budget", candidates, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.InDelta(t, 0.2, results[1].Score, 1e-9)
}

func TestLLMReranker_UnparsableScore(t *testing.T) {
	client := &scriptedClient{responses: map[string]string{
		"good chunk": "8",
		"bad chunk":  "definitely a ten",
	}}
	reranker := rag.NewLLMReranker(client)

	candidates := []knowledge.SearchResult{
		hit("a", "bad chunk", 0.9),
		hit("b", "good chunk", 0.5),
	}

	// An unparsable rating scores 0 instead of failing the rerank.
	results, err := reranker.Rerank(t.Context(), "query", candidates, 10)
	require.NoError(t, err)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, 0.0, results[1].Score)
}
