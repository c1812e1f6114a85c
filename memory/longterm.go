package memory

type (
	// longTermStore is the durable, cross-session tier. It holds copies of
	// promoted events keyed by Ref and never grows past capacity: each
	// insert at the bound evicts the lowest-importance entry first, oldest
	// timestamp breaking ties.
	longTermStore struct {
		capacity int
		entries  map[string]*Event
	}
)

func newLongTermStore(capacity int) *longTermStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &longTermStore{
		capacity: capacity,
		entries:  make(map[string]*Event),
	}
}

// insert stores a promoted event, returning the entry evicted to stay
// within capacity, if any. The caller removes the evicted entry from the
// vector index under the same lock.
func (l *longTermStore) insert(e *Event) (evicted *Event) {
	if _, exists := l.entries[e.Ref()]; !exists && len(l.entries) >= l.capacity {
		evicted = l.victim()
		delete(l.entries, evicted.Ref())
	}
	l.entries[e.Ref()] = e
	return evicted
}

// victim picks the eviction candidate: lowest importance, then oldest
// timestamp, then lowest ref for a stable total order.
func (l *longTermStore) victim() *Event {
	var v *Event
	for _, e := range l.entries {
		if v == nil {
			v = e
			continue
		}
		switch {
		case e.Importance < v.Importance:
			v = e
		case e.Importance == v.Importance && e.Timestamp.Before(v.Timestamp):
			v = e
		case e.Importance == v.Importance && e.Timestamp.Equal(v.Timestamp) && e.Ref() < v.Ref():
			v = e
		}
	}
	return v
}

func (l *longTermStore) get(ref string) (*Event, bool) {
	e, ok := l.entries[ref]
	return e, ok
}

func (l *longTermStore) len() int {
	return len(l.entries)
}

func (l *longTermStore) clear() {
	l.entries = make(map[string]*Event)
}
