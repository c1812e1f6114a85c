//go:build !without_sqlite

package vector

import (
	"fmt"
	"time"

	"context"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/memtide/memtide/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteIndex implements Index on a sqlite-vec virtual table, giving the
// document corpus durability across restarts under the same contract as
// MemoryIndex.
type SqliteIndex struct {
	db  *gorm.DB
	dim int
}

type SqliteEntryRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Rank is the insertion order, assigned explicitly inside the upsert
	// transaction. sqlite only auto-increments the primary key, and ID
	// must stay the primary key for upserts to have a conflict target.
	Rank     int64 `gorm:"uniqueIndex"`
	Text     string
	Metadata datatypes.JSONType[map[string]any]
}

func (SqliteEntryRecord) TableName() string {
	return "index_entries"
}

var _ Index = (*SqliteIndex)(nil)

func NewSqliteIndex(dbPath string, dim int) (*SqliteIndex, error) {
	sqlite_vec.Auto()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	idx := &SqliteIndex{db: db, dim: dim}

	if err := db.AutoMigrate(&SqliteEntryRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate index entries table")
	}
	if err := idx.createVectorTable(); err != nil {
		return nil, err
	}

	return idx, nil
}

func (s *SqliteIndex) createVectorTable() error {
	var sqliteVersion, vecVersion string
	if err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion); err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entry_vectors USING vec0(
			entry_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.dim)

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create entry_vectors table")
	}

	return nil
}

func (s *SqliteIndex) Upsert(ctx context.Context, id, text string, vec []float32, metadata map[string]any) error {
	if id == "" {
		return errors.Wrapf(errors.ErrInvalidArgument, "entry id is empty")
	}
	if len(vec) != s.dim {
		return errors.Errorf("vector dimension mismatch: index has %d, got %d", s.dim, len(vec))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := SqliteEntryRecord{
			ID:       id,
			Text:     text,
			Metadata: datatypes.NewJSONType(metadata),
		}

		// Preserve the original insertion rank on upsert; new entries get
		// the next rank.
		var existing SqliteEntryRecord
		if r := tx.Find(&existing, "id = ?", id); r.Error != nil {
			return errors.Wrapf(r.Error, "failed to look up entry %s", id)
		} else if r.RowsAffected > 0 {
			record.Rank = existing.Rank
			record.CreatedAt = existing.CreatedAt
		} else {
			var maxRank int64
			if err := tx.Model(&SqliteEntryRecord{}).Select("COALESCE(MAX(rank), 0)").Scan(&maxRank).Error; err != nil {
				return errors.Wrapf(err, "failed to compute next rank")
			}
			record.Rank = maxRank + 1
		}

		if err := tx.Save(&record).Error; err != nil {
			return errors.Wrapf(err, "failed to save entry record")
		}

		if err := tx.Exec("DELETE FROM entry_vectors WHERE entry_id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete existing vector")
		}

		serialized, err := sqlite_vec.SerializeFloat32(vec)
		if err != nil {
			return errors.Wrapf(err, "failed to serialize embedding")
		}

		if err := tx.Exec("INSERT INTO entry_vectors (entry_id, embedding) VALUES (?, ?)", id, serialized).Error; err != nil {
			return errors.Wrapf(err, "failed to insert entry vector")
		}

		return nil
	})
}

func (s *SqliteIndex) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM entry_vectors WHERE entry_id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete vector")
		}
		if err := tx.Delete(&SqliteEntryRecord{}, "id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete entry record")
		}
		return nil
	})
}

func (s *SqliteIndex) Query(ctx context.Context, vec []float32, k int, filter map[string]any) ([]Hit, error) {
	if k <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "k must be positive, got %d", k)
	}
	if len(vec) != s.dim {
		return nil, errors.Errorf("vector dimension mismatch: index has %d, got %d", s.dim, len(vec))
	}

	tx := s.db.WithContext(ctx)

	// Restrict candidates by metadata before the vector match, mirroring
	// the filter-then-score requirement of the in-memory index.
	var allowedIDs []string
	if len(filter) > 0 {
		query := tx.Model(&SqliteEntryRecord{})
		for key, value := range filter {
			query = query.Where(datatypes.JSONQuery("metadata").Equals(value, key))
		}
		if err := query.Pluck("id", &allowedIDs).Error; err != nil {
			return nil, errors.Wrapf(err, "failed to apply metadata filter")
		}
		if len(allowedIDs) == 0 {
			return []Hit{}, nil
		}
	}

	serialized, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	var searchSQL string
	var args []any
	if len(allowedIDs) > 0 {
		searchSQL = `
			SELECT entry_id, distance
			FROM entry_vectors
			WHERE embedding MATCH ? AND entry_id IN ?
			ORDER BY distance
			LIMIT ?
		`
		args = []any{serialized, allowedIDs, k}
	} else {
		searchSQL = `
			SELECT entry_id, distance
			FROM entry_vectors
			WHERE embedding MATCH ?
			ORDER BY distance
			LIMIT ?
		`
		args = []any{serialized, k}
	}

	rows, err := tx.Raw(searchSQL, args...).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to execute vector search")
	}
	defer rows.Close()

	scoreByID := make(map[string]float64)
	var ids []string
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan result row")
		}
		ids = append(ids, id)
		// Cosine distance is 1 - similarity.
		scoreByID[id] = 1.0 - distance
	}

	if len(ids) == 0 {
		return []Hit{}, nil
	}

	var records []SqliteEntryRecord
	if err := tx.Where("id IN ?", ids).Order("rank asc").Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch entry records")
	}

	recordByID := make(map[string]*SqliteEntryRecord, len(records))
	for j := range records {
		recordByID[records[j].ID] = &records[j]
	}

	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		record, ok := recordByID[id]
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			ID:       id,
			Text:     record.Text,
			Metadata: record.Metadata.Data(),
			Score:    scoreByID[id],
		})
	}

	return hits, nil
}

func (s *SqliteIndex) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&SqliteEntryRecord{}).Count(&count).Error; err != nil {
		return 0, errors.Wrapf(err, "failed to count entries")
	}
	return int(count), nil
}

func (s *SqliteIndex) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM entry_vectors").Error; err != nil {
			return errors.Wrapf(err, "failed to clear vectors")
		}
		if err := tx.Exec("DELETE FROM index_entries").Error; err != nil {
			return errors.Wrapf(err, "failed to clear entry records")
		}
		return nil
	})
}

func (s *SqliteIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
