package memory

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/memtide/memtide/errors"
)

// ExportFormatVersion tags export files so later readers can detect
// incompatible layouts.
const ExportFormatVersion = 1

type (
	exportFile struct {
		Version    int             `json:"version"`
		ExportedAt time.Time       `json:"exported_at"`
		Sessions   []exportSession `json:"sessions"`
		// LongTerm carries the full long-term entries, not refs into the
		// session logs: the tier outlives cleared sessions, so its
		// members may have no session in the snapshot at all.
		LongTerm []*Event `json:"long_term"`
	}

	exportSession struct {
		SessionID    string    `json:"session_id"`
		CreatedAt    time.Time `json:"created_at"`
		LastActiveAt time.Time `json:"last_active_at"`
		Events       []*Event  `json:"events"`
	}
)

// Export writes a self-contained snapshot of every session plus the
// long-term membership to path and returns the number of events written.
// The file round-trips through Import byte-exactly at the event level.
func (s *Store) Export(path string) (int, error) {
	s.mu.RLock()

	file := exportFile{
		Version:    ExportFormatVersion,
		ExportedAt: s.now(),
	}

	count := 0
	for _, session := range s.sessions {
		events := make([]*Event, len(session.events))
		copy(events, session.events)
		file.Sessions = append(file.Sessions, exportSession{
			SessionID:    session.ID,
			CreatedAt:    session.CreatedAt,
			LastActiveAt: session.LastActiveAt,
			Events:       events,
		})
		count += len(events)
	}
	sort.Slice(file.Sessions, func(i, j int) bool {
		return file.Sessions[i].SessionID < file.Sessions[j].SessionID
	})

	for _, e := range s.longTerm.entries {
		file.LongTerm = append(file.LongTerm, e)
	}
	sort.Slice(file.LongTerm, func(i, j int) bool {
		return file.LongTerm[i].Ref() < file.LongTerm[j].Ref()
	})

	s.mu.RUnlock()

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return 0, errors.Wrapf(err, "failed to marshal export")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, errors.Wrapf(errors.ErrIOFailure, "failed to write export to %s: %v", path, err)
	}

	return count, nil
}

// Import reads a snapshot produced by Export, replacing any session with
// the same id and re-promoting the recorded long-term members. Embeddings
// are recomputed because export files never carry vectors. With a persister
// attached every imported event and promotion is written through, so the
// restored state survives a restart.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrIOFailure, "failed to read export from %s: %v", path, err)
	}

	var file exportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, errors.Wrapf(err, "failed to unmarshal export")
	}
	if file.Version != ExportFormatVersion {
		return 0, errors.Wrapf(errors.ErrInvalidArgument, "unsupported export format version %d", file.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, es := range file.Sessions {
		session := newSession(es.SessionID, es.CreatedAt)
		session.LastActiveAt = es.LastActiveAt
		session.restore(es.Events)
		s.sessions[es.SessionID] = session
		count += len(es.Events)

		if s.persister != nil {
			if err := s.persister.ClearSession(ctx, es.SessionID); err != nil {
				return count, errors.Wrapf(errors.ErrIOFailure, "failed to replace persisted session %s: %v", es.SessionID, err)
			}
			for _, e := range es.Events {
				if err := s.persister.AppendEvent(ctx, session, e); err != nil {
					return count, errors.Wrapf(errors.ErrIOFailure, "failed to persist imported event %s: %v", e.Ref(), err)
				}
			}
		}
	}

	// Oldest first so capacity eviction during the rebuild keeps the same
	// entries a live store would have kept.
	longTerm := make([]*Event, len(file.LongTerm))
	copy(longTerm, file.LongTerm)
	sort.Slice(longTerm, func(i, j int) bool {
		if longTerm[i].Timestamp.Equal(longTerm[j].Timestamp) {
			return longTerm[i].Ref() < longTerm[j].Ref()
		}
		return longTerm[i].Timestamp.Before(longTerm[j].Timestamp)
	})

	for _, e := range longTerm {
		vecs, err := s.embedder.Embed(ctx, e.Content)
		if err != nil {
			return count, errors.Wrapf(err, "failed to embed imported event %s", e.Ref())
		}
		promotedCopy := *e
		promotedCopy.Embedding = vecs[0]
		if evicted := s.longTerm.insert(&promotedCopy); evicted != nil {
			if err := s.index.Delete(ctx, evicted.Ref()); err != nil {
				return count, errors.Wrapf(err, "failed to remove evicted index entry %s", evicted.Ref())
			}
			if s.persister != nil {
				if err := s.persister.DemoteEvent(ctx, evicted.Ref()); err != nil {
					return count, errors.Wrapf(errors.ErrIOFailure, "failed to persist eviction of %s: %v", evicted.Ref(), err)
				}
			}
		}
		if err := s.index.Upsert(ctx, e.Ref(), e.Content, promotedCopy.Embedding, indexMetadata(e)); err != nil {
			return count, errors.Wrapf(err, "failed to index imported event %s", e.Ref())
		}
		if s.persister != nil {
			if err := s.persister.PromoteEvent(ctx, &promotedCopy); err != nil {
				return count, errors.Wrapf(errors.ErrIOFailure, "failed to persist promotion of %s: %v", e.Ref(), err)
			}
		}
	}

	return count, nil
}
