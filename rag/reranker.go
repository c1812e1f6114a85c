package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/memtide/memtide/internal/stringslices"
	"github.com/memtide/memtide/knowledge"
	"github.com/memtide/memtide/llm"
)

type (
	// Reranker reorders retrieval candidates against the query and
	// truncates to topK.
	Reranker interface {
		Rerank(ctx context.Context, query string, candidates []knowledge.SearchResult, topK int) ([]knowledge.SearchResult, error)
	}

	// NoopReranker keeps the retrieval order.
	NoopReranker struct{}

	// TokenOverlapReranker blends the retrieval score with the fraction of
	// query tokens present in the chunk. Deterministic, no model call.
	TokenOverlapReranker struct {
		// OverlapWeight is the share of the blended score taken from token
		// overlap; the rest keeps the retrieval score.
		OverlapWeight float64
	}

	// LLMReranker asks the generation model to rate each candidate's
	// relevance from 0 to 10. A candidate whose rating fails scores 0
	// instead of failing the whole rerank.
	LLMReranker struct {
		client llm.Client
	}
)

var (
	_ Reranker = (*NoopReranker)(nil)
	_ Reranker = (*TokenOverlapReranker)(nil)
	_ Reranker = (*LLMReranker)(nil)
)

func NewNoopReranker() *NoopReranker {
	return &NoopReranker{}
}

func (r *NoopReranker) Rerank(ctx context.Context, query string, candidates []knowledge.SearchResult, topK int) ([]knowledge.SearchResult, error) {
	return truncate(candidates, topK), nil
}

func NewTokenOverlapReranker() *TokenOverlapReranker {
	return &TokenOverlapReranker{OverlapWeight: 0.5}
}

func (r *TokenOverlapReranker) Rerank(ctx context.Context, query string, candidates []knowledge.SearchResult, topK int) ([]knowledge.SearchResult, error) {
	queryTokens := stringslices.Tokenize(query)

	rescored := make([]knowledge.SearchResult, len(candidates))
	copy(rescored, candidates)
	for i := range rescored {
		overlap := 0.0
		if len(queryTokens) > 0 {
			matched := stringslices.IntersectCount(stringslices.Tokenize(rescored[i].Text), queryTokens)
			overlap = float64(matched) / float64(len(queryTokens))
		}
		rescored[i].Score = (1-r.OverlapWeight)*rescored[i].Score + r.OverlapWeight*overlap
	}

	// Stable keeps the retrieval order on equal blended scores.
	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Score > rescored[j].Score
	})
	return truncate(rescored, topK), nil
}

func NewLLMReranker(client llm.Client) *LLMReranker {
	return &LLMReranker{client: client}
}

func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []knowledge.SearchResult, topK int) ([]knowledge.SearchResult, error) {
	rescored := make([]knowledge.SearchResult, len(candidates))
	copy(rescored, candidates)
	for i := range rescored {
		score, err := r.scoreRelevance(ctx, query, rescored[i].Text)
		if err != nil {
			score = 0
		}
		rescored[i].Score = score
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Score > rescored[j].Score
	})
	return truncate(rescored, topK), nil
}

func (r *LLMReranker) scoreRelevance(ctx context.Context, query, text string) (float64, error) {
	prompt := fmt.Sprintf(`Rate the relevance of the document to the query on a scale from 0 to 10.
Query: %s

Document:
%s

Respond with only a number between 0 and 10.

Score:`, query, text)

	resp, err := r.client.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return 0, err
	}

	var score float64
	if _, err := fmt.Sscanf(resp, "%f", &score); err != nil {
		return 0, err
	}
	return score / 10.0, nil
}

func truncate(results []knowledge.SearchResult, topK int) []knowledge.SearchResult {
	if topK > 0 && topK < len(results) {
		return results[:topK]
	}
	return results
}
