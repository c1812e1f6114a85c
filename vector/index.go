// Package vector provides the similarity index shared by long-term memory
// and the document corpus. Entries are (id, vector, text, metadata) records;
// queries return the top-k by cosine similarity.
package vector

import (
	"context"
)

type (
	Hit struct {
		ID       string         `json:"id"`
		Text     string         `json:"text"`
		Metadata map[string]any `json:"metadata,omitempty"`
		Score    float64        `json:"score"`
	}

	// Index is the similarity index contract. Scores are cosine similarity
	// in [-1, 1]. Query with k larger than the index returns all entries;
	// ties are broken by insertion order (earlier wins), and re-upserting an
	// id keeps its original insertion rank. The linear-scan implementation
	// is deliberate at the target scale; an approximate-nearest-neighbor
	// index can be substituted behind this interface without touching
	// callers.
	Index interface {
		Upsert(ctx context.Context, id, text string, vec []float32, metadata map[string]any) error
		Delete(ctx context.Context, id string) error
		Query(ctx context.Context, vec []float32, k int, filter map[string]any) ([]Hit, error)
		Count(ctx context.Context) (int, error)
		Clear(ctx context.Context) error
	}
)

func matchFilter(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}
