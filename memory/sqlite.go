package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/memtide/memtide/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type (
	// SqlitePersister stores one row per event, so appending stays O(1)
	// per Record instead of rewriting a session blob.
	SqlitePersister struct {
		db *gorm.DB
	}

	SessionRecord struct {
		ID           string `gorm:"primaryKey"`
		CreatedAt    time.Time
		LastActiveAt time.Time `gorm:"not null"`
	}

	EventRecord struct {
		SessionID  string `gorm:"primaryKey"`
		EventID    uint64 `gorm:"primaryKey;autoIncrement:false"`
		Timestamp  time.Time
		Kind       string
		Content    string
		Importance float64
		Context    datatypes.JSONType[map[string]any]
	}

	// LongTermRecord is a long-term tier member. It duplicates the event
	// fields instead of referencing the events table because the tier
	// outlives its source session: clearing a session deletes that
	// session's event rows but never these.
	LongTermRecord struct {
		Ref        string `gorm:"primaryKey"`
		SessionID  string
		EventID    uint64
		Timestamp  time.Time
		Kind       string
		Content    string
		Importance float64
		Context    datatypes.JSONType[map[string]any]
	}
)

func (SessionRecord) TableName() string  { return "sessions" }
func (EventRecord) TableName() string    { return "events" }
func (LongTermRecord) TableName() string { return "long_term_events" }

var _ Persister = (*SqlitePersister)(nil)

func NewSqlitePersister(dbPath string) (*SqlitePersister, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is not configured")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create sqlite directory for %s", dbPath)
		}
	}

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	if err := db.AutoMigrate(&SessionRecord{}, &EventRecord{}, &LongTermRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to auto-migrate sqlite database at %s", dbPath)
	}

	return &SqlitePersister{db: db}, nil
}

func (p *SqlitePersister) AppendEvent(ctx context.Context, session *Session, event *Event) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := SessionRecord{
			ID:           session.ID,
			CreatedAt:    session.CreatedAt,
			LastActiveAt: session.LastActiveAt,
		}
		if err := tx.Save(&header).Error; err != nil {
			return errors.Wrapf(err, "failed to save session %s", session.ID)
		}

		record := EventRecord{
			SessionID:  event.SessionID,
			EventID:    event.ID,
			Timestamp:  event.Timestamp,
			Kind:       string(event.Kind),
			Content:    event.Content,
			Importance: event.Importance,
			Context:    datatypes.NewJSONType(event.Context),
		}
		if err := tx.Create(&record).Error; err != nil {
			return errors.Wrapf(err, "failed to append event %s", event.Ref())
		}

		return nil
	})
}

// PromoteEvent copies an event into the durable long-term record set.
func (p *SqlitePersister) PromoteEvent(ctx context.Context, event *Event) error {
	record := LongTermRecord{
		Ref:        event.Ref(),
		SessionID:  event.SessionID,
		EventID:    event.ID,
		Timestamp:  event.Timestamp,
		Kind:       string(event.Kind),
		Content:    event.Content,
		Importance: event.Importance,
		Context:    datatypes.NewJSONType(event.Context),
	}
	if err := p.db.WithContext(ctx).Save(&record).Error; err != nil {
		return errors.Wrapf(err, "failed to promote event %s", event.Ref())
	}
	return nil
}

// DemoteEvent removes an evicted event from the long-term record set. The
// short-term row, if its session still exists, stays.
func (p *SqlitePersister) DemoteEvent(ctx context.Context, ref string) error {
	if err := p.db.WithContext(ctx).Delete(&LongTermRecord{}, "ref = ?", ref).Error; err != nil {
		return errors.Wrapf(err, "failed to demote event %s", ref)
	}
	return nil
}

func (p *SqlitePersister) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	tx := p.db.WithContext(ctx)

	var header SessionRecord
	if r := tx.Find(&header, "id = ?", sessionID); r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to load session %s", sessionID)
	} else if r.RowsAffected == 0 {
		return nil, nil
	}

	var records []EventRecord
	if err := tx.Where("session_id = ?", sessionID).Order("event_id asc").Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load events for session %s", sessionID)
	}

	session := newSession(header.ID, header.CreatedAt)
	session.LastActiveAt = header.LastActiveAt

	events := make([]*Event, len(records))
	for i, record := range records {
		events[i] = record.toEvent()
	}
	session.restore(events)

	return session, nil
}

func (p *SqlitePersister) LoadLongTerm(ctx context.Context) ([]*Event, error) {
	var records []LongTermRecord
	if err := p.db.WithContext(ctx).
		Order("timestamp asc").
		Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load long-term events")
	}

	events := make([]*Event, len(records))
	for i, record := range records {
		events[i] = record.toEvent()
	}
	return events, nil
}

func (p *SqlitePersister) ListSessions(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.WithContext(ctx).
		Model(&SessionRecord{}).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list sessions")
	}
	return ids, nil
}

// ClearSession deletes a session's log and header. Long-term records that
// originated in the session are kept; only ClearAll removes those.
func (p *SqlitePersister) ClearSession(ctx context.Context, sessionID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&EventRecord{}, "session_id = ?", sessionID).Error; err != nil {
			return errors.Wrapf(err, "failed to delete events for session %s", sessionID)
		}
		if err := tx.Delete(&SessionRecord{}, "id = ?", sessionID).Error; err != nil {
			return errors.Wrapf(err, "failed to delete session %s", sessionID)
		}
		return nil
	})
}

func (p *SqlitePersister) ClearAll(ctx context.Context) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM events").Error; err != nil {
			return errors.Wrapf(err, "failed to delete events")
		}
		if err := tx.Exec("DELETE FROM sessions").Error; err != nil {
			return errors.Wrapf(err, "failed to delete sessions")
		}
		if err := tx.Exec("DELETE FROM long_term_events").Error; err != nil {
			return errors.Wrapf(err, "failed to delete long-term events")
		}
		return nil
	})
}

func (p *SqlitePersister) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get database connection")
	}
	return sqlDB.Close()
}

func (r *EventRecord) toEvent() *Event {
	return &Event{
		ID:         r.EventID,
		SessionID:  r.SessionID,
		Timestamp:  r.Timestamp,
		Kind:       EventKind(r.Kind),
		Content:    r.Content,
		Importance: r.Importance,
		Context:    r.Context.Data(),
	}
}

func (r *LongTermRecord) toEvent() *Event {
	return &Event{
		ID:         r.EventID,
		SessionID:  r.SessionID,
		Timestamp:  r.Timestamp,
		Kind:       EventKind(r.Kind),
		Content:    r.Content,
		Importance: r.Importance,
		Context:    r.Context.Data(),
	}
}
