package memory

import (
	"github.com/memtide/memtide/internal/stringslices"
)

type (
	// Scorer rates a candidate event's importance in [0, 1]. Implementations
	// must be deterministic for identical inputs so scores survive
	// export/replay unchanged; recency is deliberately not an input, it is
	// handled by eviction tie-breaks instead.
	Scorer interface {
		Score(kind EventKind, content string, context map[string]any) float64
	}

	// HeuristicScorer combines a per-kind base weight with a small
	// information-density term derived from distinct token count. Events
	// flagged as corrections get a fixed boost.
	HeuristicScorer struct{}
)

var _ Scorer = (*HeuristicScorer)(nil)

const (
	densityWeight  = 0.15
	densityCeiling = 40

	correctionBoost = 0.10
)

var kindBaseScores = map[EventKind]float64{
	KindTask:        0.70,
	KindThought:     0.20,
	KindAction:      0.45,
	KindObservation: 0.50,
	KindAnswer:      0.85,
}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (s *HeuristicScorer) Score(kind EventKind, content string, context map[string]any) float64 {
	score := kindBaseScores[kind]

	distinct := make(map[string]struct{})
	for _, token := range stringslices.Tokenize(content) {
		distinct[token] = struct{}{}
	}
	n := len(distinct)
	if n > densityCeiling {
		n = densityCeiling
	}
	score += densityWeight * float64(n) / densityCeiling

	if correction, ok := context["correction"].(bool); ok && correction {
		score += correctionBoost
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
