package memory

import (
	"time"
)

// Session is the short-term tier: an append-only, temporally ordered event
// log. It lives until an explicit Clear, never expires implicitly.
type Session struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	events []*Event
	lastID uint64
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func (s *Session) nextID() uint64 {
	s.lastID++
	return s.lastID
}

func (s *Session) append(e *Event, now time.Time) {
	s.events = append(s.events, e)
	s.LastActiveAt = now
}

// recent returns up to n most recent events in temporal order.
func (s *Session) recent(n int) []*Event {
	if n <= 0 || len(s.events) == 0 {
		return []*Event{}
	}
	start := len(s.events) - n
	if start < 0 {
		start = 0
	}
	out := make([]*Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// restore rebuilds a session from persisted events, assumed ordered by id.
func (s *Session) restore(events []*Event) {
	s.events = append(s.events, events...)
	for _, e := range events {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
}
