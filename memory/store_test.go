package memory_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/embedding"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/memory"
	"github.com/memtide/memtide/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentScorer assigns a fixed importance per content string so tests can
// steer promotion and eviction precisely.
type contentScorer struct {
	scores map[string]float64
}

func (s *contentScorer) Score(kind memory.EventKind, content string, context map[string]any) float64 {
	return s.scores[content]
}

// fakeClock hands out strictly increasing timestamps one second apart.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestStore(t *testing.T, conf *config.MemoryConfig, opts ...memory.StoreOption) *memory.Store {
	t.Helper()
	if conf == nil {
		conf = config.NewMemoryConfig()
	}
	opts = append([]memory.StoreOption{memory.WithClock(newFakeClock().Now)}, opts...)
	store, err := memory.NewStore(
		t.Context(),
		conf,
		slog.New(slog.DiscardHandler),
		embedding.NewHashEmbedder(64),
		vector.NewMemoryIndex(),
		opts...,
	)
	require.NoError(t, err)
	return store
}

func TestStore_Record(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	event, err := store.Record(ctx, "sess-1", memory.KindTask, "summarize the incident report", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), event.ID)
	assert.Equal(t, "sess-1", event.SessionID)
	assert.Equal(t, memory.KindTask, event.Kind)
	assert.Equal(t, "sess-1/1", event.Ref())
	assert.GreaterOrEqual(t, event.Importance, 0.0)
	assert.LessOrEqual(t, event.Importance, 1.0)

	// Ids are monotonic within the session.
	second, err := store.Record(ctx, "sess-1", memory.KindThought, "need the pager timeline first", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.ID)

	// A second session starts its own id sequence.
	other, err := store.Record(ctx, "sess-2", memory.KindTask, "unrelated task", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other.ID)
}

func TestStore_RecordValidation(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.Record(ctx, "", memory.KindTask, "anything", nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = store.Record(ctx, "sess-1", memory.EventKind("feeling"), "anything", nil)
	assert.ErrorIs(t, err, errors.ErrInvalidEventKind)
}

func TestStore_GetContext(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	// Unknown session yields empty, not an error.
	assert.Empty(t, store.GetContext("nobody", 10))

	for _, content := range []string{"one", "two", "three", "four"} {
		_, err := store.Record(ctx, "sess-1", memory.KindThought, content, nil)
		require.NoError(t, err)
	}

	recent := store.GetContext("sess-1", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Content)
	assert.Equal(t, "four", recent[1].Content)

	// Asking for more than exists returns everything in temporal order.
	all := store.GetContext("sess-1", 100)
	require.Len(t, all, 4)
	assert.Equal(t, "one", all[0].Content)

	assert.Empty(t, store.GetContext("sess-1", 0))
	assert.Empty(t, store.GetContext("sess-1", -3))
}

func TestStore_PromotionThreshold(t *testing.T) {
	scorer := &contentScorer{scores: map[string]float64{
		"kept":     0.50,
		"promoted": 0.80,
		"dropped":  0.49,
	}}
	store := newTestStore(t, nil, memory.WithScorer(scorer))
	ctx := t.Context()

	_, err := store.Record(ctx, "sess-1", memory.KindObservation, "dropped", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, store.LongTermCount())

	// Importance equal to the threshold promotes.
	kept, err := store.Record(ctx, "sess-1", memory.KindObservation, "kept", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.LongTermCount())

	_, err = store.Record(ctx, "sess-1", memory.KindAnswer, "promoted", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, store.LongTermCount())

	// The promoted copy is reachable by ref and is a copy, not the
	// short-term entry itself.
	stored, ok := store.LongTermGet(kept.Ref())
	require.True(t, ok)
	assert.Equal(t, kept.Content, stored.Content)
	assert.NotSame(t, kept, stored)

	_, ok = store.LongTermGet("sess-1/1")
	assert.False(t, ok)
}

func TestStore_EvictionOrder(t *testing.T) {
	scorer := &contentScorer{scores: map[string]float64{
		"low":    0.55,
		"mid":    0.70,
		"high":   0.90,
		"newest": 0.80,
	}}
	conf := config.NewMemoryConfig()
	conf.LongTermCapacity = 3
	store := newTestStore(t, conf, memory.WithScorer(scorer))
	ctx := t.Context()

	var refs []string
	for _, content := range []string{"low", "mid", "high"} {
		e, err := store.Record(ctx, "sess-1", memory.KindObservation, content, nil)
		require.NoError(t, err)
		refs = append(refs, e.Ref())
	}
	require.Equal(t, 3, store.LongTermCount())

	// The fourth promotion evicts the lowest-importance entry, while the
	// short-term log keeps all four.
	_, err := store.Record(ctx, "sess-1", memory.KindObservation, "newest", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, store.LongTermCount())
	assert.Len(t, store.GetContext("sess-1", 10), 4)

	_, ok := store.LongTermGet(refs[0])
	assert.False(t, ok, "lowest-importance entry should be evicted")
	_, ok = store.LongTermGet(refs[1])
	assert.True(t, ok)
	_, ok = store.LongTermGet(refs[2])
	assert.True(t, ok)
}

func TestStore_EvictionTieBreaksOldest(t *testing.T) {
	scorer := &contentScorer{scores: map[string]float64{
		"older": 0.60,
		"newer": 0.60,
		"third": 0.60,
	}}
	conf := config.NewMemoryConfig()
	conf.LongTermCapacity = 2
	store := newTestStore(t, conf, memory.WithScorer(scorer))
	ctx := t.Context()

	older, err := store.Record(ctx, "sess-1", memory.KindObservation, "older", nil)
	require.NoError(t, err)
	newer, err := store.Record(ctx, "sess-1", memory.KindObservation, "newer", nil)
	require.NoError(t, err)

	_, err = store.Record(ctx, "sess-1", memory.KindObservation, "third", nil)
	require.NoError(t, err)

	_, ok := store.LongTermGet(older.Ref())
	assert.False(t, ok, "equal importance should evict the oldest entry")
	_, ok = store.LongTermGet(newer.Ref())
	assert.True(t, ok)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.Record(ctx, "sess-1", memory.KindTask, "first task", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "sess-1", memory.KindThought, "a thought", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "sess-2", memory.KindTask, "second task", nil)
	require.NoError(t, err)

	all := store.List(nil)
	require.Len(t, all, 3)
	assert.Equal(t, "first task", all[0].Content, "list should be timestamp ascending")

	tasks := store.List(&memory.Filter{Kind: memory.KindTask})
	require.Len(t, tasks, 2)

	sess2 := store.List(&memory.Filter{SessionID: "sess-2"})
	require.Len(t, sess2, 1)
	assert.Equal(t, "second task", sess2[0].Content)

	since := store.List(&memory.Filter{Since: all[2].Timestamp})
	require.Len(t, since, 1)
}

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	stats := store.Stats("nobody")
	assert.Equal(t, 0, stats.TotalEvents)
	assert.Empty(t, stats.CountsByKind)

	_, err := store.Record(ctx, "sess-1", memory.KindTask, "plan the rollout", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "sess-1", memory.KindThought, "check the dependencies", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "sess-1", memory.KindThought, "dependencies look fine", nil)
	require.NoError(t, err)

	stats = store.Stats("sess-1")
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 1, stats.CountsByKind[memory.KindTask])
	assert.Equal(t, 2, stats.CountsByKind[memory.KindThought])
	assert.Greater(t, stats.MeanImportance, 0.0)
	assert.Equal(t, 2*time.Second, stats.SessionDuration)
}

func TestStore_Clear(t *testing.T) {
	scorer := &contentScorer{scores: map[string]float64{"keep me": 0.9}}
	store := newTestStore(t, nil, memory.WithScorer(scorer))
	ctx := t.Context()

	_, err := store.Record(ctx, "sess-1", memory.KindAnswer, "keep me", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "sess-2", memory.KindThought, "scratch", nil)
	require.NoError(t, err)

	require.ErrorIs(t, store.Clear(ctx, ""), errors.ErrInvalidArgument)

	// Clearing one session leaves the long-term tier untouched.
	require.NoError(t, store.Clear(ctx, "sess-2"))
	assert.Empty(t, store.GetContext("sess-2", 10))
	assert.Len(t, store.GetContext("sess-1", 10), 1)
	assert.Equal(t, 1, store.LongTermCount())

	require.NoError(t, store.Clear(ctx, memory.ClearAllSessions))
	assert.Empty(t, store.GetContext("sess-1", 10))
	assert.Equal(t, 0, store.LongTermCount())
}

func TestStore_ListSessions(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = store.Record(ctx, "beta", memory.KindThought, "b", nil)
	require.NoError(t, err)
	_, err = store.Record(ctx, "alpha", memory.KindThought, "a", nil)
	require.NoError(t, err)

	ids, err = store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}
