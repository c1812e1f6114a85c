package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/knowledge"
	"github.com/memtide/memtide/llm"
)

// Engine runs the retrieve-rerank-assemble-generate pipeline.
type Engine struct {
	conf      *config.RAGConfig
	logger    *slog.Logger
	retriever Retriever
	reranker  Reranker
	client    llm.Client
}

type EngineOption func(*Engine)

// WithReranker substitutes the reranking stage. Only consulted when
// reranking is enabled in the config.
func WithReranker(r Reranker) EngineOption {
	return func(e *Engine) { e.reranker = r }
}

func NewEngine(conf *config.RAGConfig, logger *slog.Logger, retriever Retriever, client llm.Client, opts ...EngineOption) *Engine {
	if conf == nil {
		conf = config.NewRAGConfig()
	}
	e := &Engine{
		conf:      conf,
		logger:    logger,
		retriever: retriever,
		reranker:  NewNoopReranker(),
		client:    client,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers one question. The returned Result always has a terminal
// state; pipeline errors are recorded in Result.Err, never returned.
// Confidence is the top retrieval similarity, 0 when nothing cleared the
// relevance floor (generation is still attempted in that case). An empty
// corpus fails with ErrEmptyCorpus before any retrieval.
func (e *Engine) Query(ctx context.Context, query string) *Result {
	result := &Result{Query: query, State: StateReceived}

	if strings.TrimSpace(query) == "" {
		return result.fail(errors.Wrapf(errors.ErrInvalidArgument, "query is empty"))
	}

	count, err := e.retriever.Count(ctx)
	if err != nil {
		return result.fail(errors.Wrapf(err, "failed to size corpus"))
	}
	if count == 0 {
		return result.fail(errors.Wrapf(errors.ErrEmptyCorpus, "no documents indexed"))
	}

	k := e.conf.TopK
	if e.conf.RerankEnabled && e.conf.RetrievalFactor > 1 {
		k *= e.conf.RetrievalFactor
	}

	hits, err := e.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return result.fail(errors.Wrapf(err, "retrieval failed"))
	}
	result.Hits = e.applyFloor(hits)
	result.State = StateRetrieved

	if e.conf.RerankEnabled {
		reranked, err := e.reranker.Rerank(ctx, query, result.Hits, e.conf.TopK)
		if err != nil {
			e.logger.Warn("reranking failed, keeping retrieval order", slog.Any("error", err))
			if len(result.Hits) > e.conf.TopK {
				result.Hits = result.Hits[:e.conf.TopK]
			}
		} else {
			result.Hits = reranked
			result.State = StateReranked
		}
	}

	result.Context = e.assembleContext(result.Hits)
	result.State = StateContextBuilt
	if len(result.Hits) > 0 {
		result.Confidence = result.Hits[0].Score
	}

	prompt, err := buildPrompt(query, result.Context)
	if err != nil {
		return result.fail(err)
	}

	answer, err := e.client.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return result.fail(err)
	}
	result.Answer = answer
	result.State = StateAnswered

	e.logger.Debug("query answered",
		slog.Int("hits", len(result.Hits)),
		slog.Float64("confidence", result.Confidence))
	return result
}

// BatchQuery answers queries in order, checking for cancellation between
// items. One failed query does not abort the batch; after a cancel the
// remaining queries are marked failed without running.
func (e *Engine) BatchQuery(ctx context.Context, queries []string) []*Result {
	results := make([]*Result, 0, len(queries))
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			for _, rest := range queries[i:] {
				r := &Result{Query: rest, State: StateReceived}
				results = append(results, r.fail(errors.Wrapf(err, "batch cancelled")))
			}
			break
		}
		results = append(results, e.Query(ctx, query))
	}
	return results
}

// applyFloor drops hits scoring below the relevance floor.
func (e *Engine) applyFloor(hits []knowledge.SearchResult) []knowledge.SearchResult {
	kept := make([]knowledge.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= e.conf.RelevanceFloor {
			kept = append(kept, hit)
		}
	}
	return kept
}

// assembleContext concatenates chunk texts most-relevant-first while they
// fit the character budget. A chunk that would overflow is dropped whole
// and assembly moves on, so a long chunk never shadows shorter ones behind
// it.
func (e *Engine) assembleContext(hits []knowledge.SearchResult) string {
	var (
		parts []string
		used  int
	)
	for _, hit := range hits {
		cost := len(hit.Text)
		if len(parts) > 0 {
			cost += 2
		}
		if used+cost > e.conf.ContextBudget {
			continue
		}
		parts = append(parts, hit.Text)
		used += cost
	}
	return strings.Join(parts, "\n\n")
}
