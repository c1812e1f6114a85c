package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/embedding"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/vector"
	"github.com/samber/lo"
)

type (
	// Persister is the durable storage behind the store. Appends are one
	// row per event so the write cost stays O(1) per Record. Long-term
	// membership is its own record set, separate from the session logs:
	// clearing a session must not touch the long-term tier.
	Persister interface {
		AppendEvent(ctx context.Context, session *Session, event *Event) error
		PromoteEvent(ctx context.Context, event *Event) error
		DemoteEvent(ctx context.Context, ref string) error
		LoadSession(ctx context.Context, sessionID string) (*Session, error)
		LoadLongTerm(ctx context.Context) ([]*Event, error)
		ListSessions(ctx context.Context) ([]string, error)
		ClearSession(ctx context.Context, sessionID string) error
		ClearAll(ctx context.Context) error
		Close() error
	}

	// Store owns both memory tiers and the memory namespace of the vector
	// index. One RWMutex guards all three, which makes a promotion, its
	// eviction and the paired index update a single transaction to readers.
	Store struct {
		mu sync.RWMutex

		conf     *config.MemoryConfig
		logger   *slog.Logger
		embedder embedding.Embedder
		index    vector.Index
		scorer   Scorer

		sessions  map[string]*Session
		longTerm  *longTermStore
		persister Persister

		now func() time.Time
	}

	StoreOption func(*Store)
)

// WithScorer substitutes the importance policy.
func WithScorer(scorer Scorer) StoreOption {
	return func(s *Store) { s.scorer = scorer }
}

// WithPersister attaches durable storage. Without it the store is memory
// only.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore builds the store and, when a persister is attached, restores the
// long-term tier and rebuilds its vector index entries from storage.
func NewStore(ctx context.Context, conf *config.MemoryConfig, logger *slog.Logger, embedder embedding.Embedder, index vector.Index, opts ...StoreOption) (*Store, error) {
	if conf == nil {
		conf = config.NewMemoryConfig()
	}
	s := &Store{
		conf:     conf,
		logger:   logger,
		embedder: embedder,
		index:    index,
		scorer:   NewHeuristicScorer(),
		sessions: make(map[string]*Session),
		longTerm: newLongTermStore(conf.LongTermCapacity),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.persister != nil {
		if err := s.restoreLongTerm(ctx); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// restoreLongTerm reloads promoted events and re-embeds them. Embeddings
// are not persisted; the index is rebuilt on load.
func (s *Store) restoreLongTerm(ctx context.Context) error {
	events, err := s.persister.LoadLongTerm(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrIOFailure, "failed to load long-term store: %v", err)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Ref() < events[j].Ref()
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	for _, e := range events {
		vecs, err := s.embedder.Embed(ctx, e.Content)
		if err != nil {
			return errors.Wrapf(err, "failed to re-embed long-term event %s", e.Ref())
		}
		e.Embedding = vecs[0]
		s.longTerm.insert(e)
		if err := s.index.Upsert(ctx, e.Ref(), e.Content, e.Embedding, indexMetadata(e)); err != nil {
			return errors.Wrapf(err, "failed to rebuild index entry %s", e.Ref())
		}
	}

	return nil
}

// Record appends an event to the session's short-term log, scores it and,
// when the score reaches the promotion threshold, copies it into the
// long-term tier and the vector index, evicting the lowest-importance entry
// if the tier is full. A persistence failure is returned wrapped as
// ErrIOFailure, but the in-memory mutation stands: the event in the first
// return value is valid and queryable either way.
func (s *Store) Record(ctx context.Context, sessionID string, kind EventKind, content string, evtContext map[string]any) (*Event, error) {
	if sessionID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "session id is empty")
	}
	if _, err := ParseEventKind(string(kind)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session, ok := s.sessions[sessionID]
	if !ok {
		session = newSession(sessionID, now)
		s.sessions[sessionID] = session
	}

	event := &Event{
		ID:         session.nextID(),
		SessionID:  sessionID,
		Timestamp:  now,
		Kind:       kind,
		Content:    content,
		Importance: clamp01(s.scorer.Score(kind, content, evtContext)),
		Context:    evtContext,
	}
	session.append(event, now)

	promoted := event.Importance >= s.conf.PromotionThreshold
	var evicted *Event
	if promoted {
		vecs, err := s.embedder.Embed(ctx, content)
		if err != nil {
			return event, errors.Wrapf(err, "failed to embed event %s", event.Ref())
		}
		event.Embedding = vecs[0]

		promotedCopy := *event
		evicted = s.longTerm.insert(&promotedCopy)
		if evicted != nil {
			if err := s.index.Delete(ctx, evicted.Ref()); err != nil {
				return event, errors.Wrapf(err, "failed to remove evicted index entry %s", evicted.Ref())
			}
		}
		if err := s.index.Upsert(ctx, event.Ref(), content, event.Embedding, indexMetadata(event)); err != nil {
			return event, errors.Wrapf(err, "failed to index event %s", event.Ref())
		}
	}

	if s.persister != nil {
		if err := s.persister.AppendEvent(ctx, session, event); err != nil {
			s.logger.Warn("event not persisted, continuing in memory", slog.String("ref", event.Ref()), slog.Any("error", err))
			return event, errors.Wrapf(errors.ErrIOFailure, "failed to persist event %s: %v", event.Ref(), err)
		}
		if evicted != nil {
			if err := s.persister.DemoteEvent(ctx, evicted.Ref()); err != nil {
				s.logger.Warn("eviction not persisted, continuing in memory", slog.String("ref", evicted.Ref()), slog.Any("error", err))
				return event, errors.Wrapf(errors.ErrIOFailure, "failed to persist eviction of %s: %v", evicted.Ref(), err)
			}
		}
		if promoted {
			if err := s.persister.PromoteEvent(ctx, event); err != nil {
				s.logger.Warn("promotion not persisted, continuing in memory", slog.String("ref", event.Ref()), slog.Any("error", err))
				return event, errors.Wrapf(errors.ErrIOFailure, "failed to persist promotion of %s: %v", event.Ref(), err)
			}
		}
	}

	return event, nil
}

// GetContext returns the most recent maxEvents short-term entries in
// temporal order. Unknown session ids yield an empty sequence, not an
// error.
func (s *Store) GetContext(sessionID string, maxEvents int) []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return []*Event{}
	}
	return session.recent(maxEvents)
}

// List returns events across all short-term logs matching the filter,
// ordered by timestamp ascending.
func (s *Store) List(filter *Filter) []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Event
	for _, session := range s.sessions {
		out = append(out, lo.Filter(session.events, func(e *Event, _ int) bool {
			return filter.matches(e)
		})...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Ref() < out[j].Ref()
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *Store) Stats(sessionID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		SessionID:     sessionID,
		LongTermCount: s.longTerm.len(),
		CountsByKind:  make(map[EventKind]int),
	}

	session, ok := s.sessions[sessionID]
	if !ok {
		return stats
	}

	stats.TotalEvents = len(session.events)
	stats.SessionDuration = session.LastActiveAt.Sub(session.CreatedAt)
	for kind, events := range lo.GroupBy(session.events, func(e *Event) EventKind { return e.Kind }) {
		stats.CountsByKind[kind] = len(events)
	}
	if len(session.events) > 0 {
		total := lo.SumBy(session.events, func(e *Event) float64 { return e.Importance })
		stats.MeanImportance = total / float64(len(session.events))
	}

	return stats
}

// ClearAllSessions is the sentinel accepted by Clear to wipe every session
// plus the long-term tier and its index entries.
const ClearAllSessions = "all"

// Clear removes a session's short-term log; ClearAllSessions additionally
// wipes the long-term tier and its vector index entries. Irreversible, and
// confirmation is the caller's responsibility.
func (s *Store) Clear(ctx context.Context, target string) error {
	if target == "" {
		return errors.Wrapf(errors.ErrInvalidArgument, "clear target is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if target == ClearAllSessions {
		s.sessions = make(map[string]*Session)
		s.longTerm.clear()
		if err := s.index.Clear(ctx); err != nil {
			return errors.Wrapf(err, "failed to clear index")
		}
		if s.persister != nil {
			if err := s.persister.ClearAll(ctx); err != nil {
				return errors.Wrapf(errors.ErrIOFailure, "failed to clear persisted state: %v", err)
			}
		}
		return nil
	}

	delete(s.sessions, target)
	if s.persister != nil {
		if err := s.persister.ClearSession(ctx, target); err != nil {
			return errors.Wrapf(errors.ErrIOFailure, "failed to clear persisted session %s: %v", target, err)
		}
	}
	return nil
}

// LoadSession restores a session from durable storage into the live set.
// Unknown ids yield an empty new session, matching GetContext semantics.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "session id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		return session, nil
	}

	if s.persister != nil {
		session, err := s.persister.LoadSession(ctx, sessionID)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrIOFailure, "failed to load session %s: %v", sessionID, err)
		}
		if session != nil {
			s.sessions[sessionID] = session
			return session, nil
		}
	}

	session := newSession(sessionID, s.now())
	s.sessions[sessionID] = session
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	live := lo.Keys(s.sessions)
	s.mu.RUnlock()

	if s.persister == nil {
		sort.Strings(live)
		return live, nil
	}

	persisted, err := s.persister.ListSessions(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrIOFailure, "failed to list sessions: %v", err)
	}

	ids := lo.Uniq(append(live, persisted...))
	sort.Strings(ids)
	return ids, nil
}

// LongTermCount reports the current size of the long-term tier.
func (s *Store) LongTermCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.longTerm.len()
}

// LongTermGet fetches a promoted event by ref.
func (s *Store) LongTermGet(ref string) (*Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.longTerm.get(ref)
}

func (s *Store) Close() error {
	if s.persister != nil {
		return s.persister.Close()
	}
	return nil
}

func indexMetadata(e *Event) map[string]any {
	return map[string]any{
		"session_id": e.SessionID,
		"kind":       string(e.Kind),
	}
}
