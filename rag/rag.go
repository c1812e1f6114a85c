// Package rag answers questions over the indexed corpus: retrieve,
// optionally rerank, assemble context under a budget, generate. Every query
// walks an explicit state machine and failures land in the Result instead
// of propagating.
package rag

import (
	"context"

	"github.com/memtide/memtide/knowledge"
)

type (
	State string

	// Result carries the full trace of one query through the pipeline.
	// State is the last state reached; on failure it is StateFailed and
	// Err holds the cause.
	Result struct {
		Query      string                   `json:"query"`
		State      State                    `json:"state"`
		Hits       []knowledge.SearchResult `json:"hits,omitempty"`
		Context    string                   `json:"context,omitempty"`
		Answer     string                   `json:"answer,omitempty"`
		Confidence float64                  `json:"confidence"`
		Err        error                    `json:"-"`
	}

	// Retriever is the corpus the engine queries. knowledge.Service
	// implements it.
	Retriever interface {
		Retrieve(ctx context.Context, query string, k int) ([]knowledge.SearchResult, error)
		Count(ctx context.Context) (int, error)
	}
)

const (
	StateReceived     State = "RECEIVED"
	StateRetrieved    State = "RETRIEVED"
	StateReranked     State = "RERANKED"
	StateContextBuilt State = "CONTEXT_BUILT"
	StateAnswered     State = "ANSWERED"
	StateFailed       State = "FAILED"
)

func (r *Result) fail(err error) *Result {
	r.State = StateFailed
	r.Err = err
	return r
}
