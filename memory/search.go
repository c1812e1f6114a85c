package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/internal/stringslices"
	"github.com/samber/lo"
)

// Search ranks long-term entries against the query. Keyword mode scores
// case-insensitive substring and token overlap, semantic mode scores cosine
// similarity over the vector index, hybrid combines both as a weighted sum.
// Ties resolve to higher importance, then more recent timestamp. Short-term
// events are reachable through GetContext only.
func (s *Store) Search(ctx context.Context, query string, mode SearchMode, k int) ([]ScoredEvent, error) {
	if k <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "k must be positive, got %d", k)
	}
	if _, err := ParseSearchMode(string(mode)); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.longTerm.len() == 0 {
		return []ScoredEvent{}, nil
	}

	var (
		keywordScores  map[string]float64
		semanticScores map[string]float64
		err            error
	)
	if mode == ModeKeyword || mode == ModeHybrid {
		keywordScores = s.keywordScores(query)
	}
	if mode == ModeSemantic || mode == ModeHybrid {
		semanticScores, err = s.semanticScores(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	var results []ScoredEvent
	for ref, event := range s.longTerm.entries {
		var score float64
		switch mode {
		case ModeKeyword:
			kw, ok := keywordScores[ref]
			if !ok {
				continue
			}
			score = kw
		case ModeSemantic:
			sem, ok := semanticScores[ref]
			if !ok {
				continue
			}
			score = sem
		case ModeHybrid:
			kw, hasKw := keywordScores[ref]
			sem, hasSem := semanticScores[ref]
			if !hasKw && !hasSem {
				continue
			}
			score = s.conf.HybridKeywordWeight*kw + s.conf.HybridSemanticWeight*sem
		}
		results = append(results, ScoredEvent{Event: event, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Event.Importance != b.Event.Importance {
			return a.Event.Importance > b.Event.Importance
		}
		if !a.Event.Timestamp.Equal(b.Event.Timestamp) {
			return a.Event.Timestamp.After(b.Event.Timestamp)
		}
		return a.Event.Ref() < b.Event.Ref()
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// keywordScores rates every long-term entry whose content contains the
// query substring or any query token, case-insensitively. A substring match
// scores 1, otherwise the score is the fraction of query tokens present.
func (s *Store) keywordScores(query string) map[string]float64 {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	// Distinct tokens only: a repeated query word must not dilute the
	// matched fraction.
	queryTokens := lo.Uniq(stringslices.Tokenize(query))

	scores := make(map[string]float64)
	for ref, event := range s.longTerm.entries {
		contentLower := strings.ToLower(event.Content)
		if queryLower != "" && strings.Contains(contentLower, queryLower) {
			scores[ref] = 1.0
			continue
		}
		if len(queryTokens) == 0 {
			continue
		}
		matched := stringslices.IntersectCount(stringslices.Tokenize(event.Content), queryTokens)
		if matched == 0 {
			continue
		}
		scores[ref] = float64(matched) / float64(len(queryTokens))
	}
	return scores
}

func (s *Store) semanticScores(ctx context.Context, query string) (map[string]float64, error) {
	vecs, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}

	hits, err := s.index.Query(ctx, vecs[0], s.longTerm.len(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query index")
	}

	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		scores[hit.ID] = hit.Score
	}
	return scores, nil
}
