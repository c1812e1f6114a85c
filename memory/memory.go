// Package memory implements the two-tier memory subsystem: a short-term
// append-only event log per session and a bounded long-term tier of events
// promoted by importance, searchable by keyword, similarity or both.
package memory

import (
	"fmt"
	"time"

	"github.com/memtide/memtide/errors"
)

type (
	EventKind string

	// Event is one record of something that happened in a session. Events
	// are immutable once appended; a correction is a new event.
	Event struct {
		ID         uint64         `json:"id"`
		SessionID  string         `json:"session_id"`
		Timestamp  time.Time      `json:"timestamp"`
		Kind       EventKind      `json:"kind"`
		Content    string         `json:"content"`
		Importance float64        `json:"importance"`
		Context    map[string]any `json:"context,omitempty"`

		Embedding []float32 `json:"-"`
	}

	ScoredEvent struct {
		Event *Event  `json:"event"`
		Score float64 `json:"score"`
	}

	SearchMode string

	// Filter narrows List results. Zero values match everything.
	Filter struct {
		Kind      EventKind
		SessionID string
		Since     time.Time
		Until     time.Time
	}

	Stats struct {
		SessionID       string            `json:"session_id"`
		TotalEvents     int               `json:"total_events"`
		LongTermCount   int               `json:"long_term_count"`
		CountsByKind    map[EventKind]int `json:"counts_by_kind"`
		MeanImportance  float64           `json:"mean_importance"`
		SessionDuration time.Duration     `json:"session_duration"`
	}
)

const (
	KindTask        EventKind = "task"
	KindThought     EventKind = "thought"
	KindAction      EventKind = "action"
	KindObservation EventKind = "observation"
	KindAnswer      EventKind = "answer"

	ModeKeyword  SearchMode = "keyword"
	ModeSemantic SearchMode = "semantic"
	ModeHybrid   SearchMode = "hybrid"
)

// ParseEventKind rejects unknown kinds at the boundary instead of accepting
// free-form strings.
func ParseEventKind(s string) (EventKind, error) {
	switch kind := EventKind(s); kind {
	case KindTask, KindThought, KindAction, KindObservation, KindAnswer:
		return kind, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidEventKind, "unknown event kind %q", s)
	}
}

func ParseSearchMode(s string) (SearchMode, error) {
	switch mode := SearchMode(s); mode {
	case ModeKeyword, ModeSemantic, ModeHybrid:
		return mode, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidArgument, "unknown search mode %q", s)
	}
}

// Ref is the event's globally unique key: session id plus the id that is
// monotonic within the session. Long-term entries and their vector index
// twins are keyed by it.
func (e *Event) Ref() string {
	return fmt.Sprintf("%s/%d", e.SessionID, e.ID)
}

func (f *Filter) matches(e *Event) bool {
	if f == nil {
		return true
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
