package memory_test

import (
	"testing"

	"github.com/memtide/memtide/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicScorer_KindOrdering(t *testing.T) {
	scorer := memory.NewHeuristicScorer()

	content := "deploy the staging cluster"
	answer := scorer.Score(memory.KindAnswer, content, nil)
	task := scorer.Score(memory.KindTask, content, nil)
	observation := scorer.Score(memory.KindObservation, content, nil)
	action := scorer.Score(memory.KindAction, content, nil)
	thought := scorer.Score(memory.KindThought, content, nil)

	// Same content, so the kind base weight decides the ordering.
	assert.Greater(t, answer, task)
	assert.Greater(t, task, observation)
	assert.Greater(t, observation, action)
	assert.Greater(t, action, thought)
}

func TestHeuristicScorer_Deterministic(t *testing.T) {
	scorer := memory.NewHeuristicScorer()

	ctx := map[string]any{"correction": true}
	first := scorer.Score(memory.KindObservation, "the build failed on arm64", ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(memory.KindObservation, "the build failed on arm64", ctx))
	}
}

func TestHeuristicScorer_DensityRewardsDistinctTokens(t *testing.T) {
	scorer := memory.NewHeuristicScorer()

	sparse := scorer.Score(memory.KindObservation, "retry retry retry retry", nil)
	dense := scorer.Score(memory.KindObservation, "retry failed because the auth token expired yesterday", nil)
	assert.Greater(t, dense, sparse)
}

func TestHeuristicScorer_CorrectionBoost(t *testing.T) {
	scorer := memory.NewHeuristicScorer()

	plain := scorer.Score(memory.KindObservation, "the port is 5432", nil)
	corrected := scorer.Score(memory.KindObservation, "the port is 5432", map[string]any{"correction": true})
	assert.InDelta(t, 0.10, corrected-plain, 1e-9)

	// A non-boolean flag is ignored rather than trusted.
	ignored := scorer.Score(memory.KindObservation, "the port is 5432", map[string]any{"correction": "yes"})
	assert.Equal(t, plain, ignored)
}

func TestHeuristicScorer_Clamped(t *testing.T) {
	scorer := memory.NewHeuristicScorer()

	score := scorer.Score(memory.KindAnswer,
		"alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau upsilon phi chi psi omega one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
		map[string]any{"correction": true})
	require.LessOrEqual(t, score, 1.0)
	require.GreaterOrEqual(t, score, 0.0)
}
