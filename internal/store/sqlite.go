package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/aqimet/aqipipe/internal/feature"
)

// featureRow is the persisted shape of one feature record. Derived feature
// columns vary with the configured lag/window sets, so the flat field map is
// stored as a JSON payload rather than as fixed columns.
type featureRow struct {
	GroupName string    `gorm:"column:group_name;primaryKey"`
	Version   int       `gorm:"column:version;primaryKey"`
	Timestamp time.Time `gorm:"column:ts;primaryKey"`
	City      string    `gorm:"column:city"`
	Payload   string    `gorm:"column:payload"`
}

func (featureRow) TableName() string { return "feature_rows" }

// SQLiteStore implements FeatureStore on a local SQLite database via gorm.
type SQLiteStore struct {
	db        *gorm.DB
	groupName string
	version   int
}

// OpenSQLite opens (creating if needed) the SQLite database at dsn and binds
// the store to one feature group.
func OpenSQLite(dsn, groupName string, version int) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return &SQLiteStore{db: db, groupName: groupName, version: version}, nil
}

func (s *SQLiteStore) EnsureGroup(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&featureRow{}); err != nil {
		return fmt.Errorf("migrate feature group: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rows []feature.Record) error {
	if len(rows) == 0 {
		return nil
	}

	models := make([]featureRow, 0, len(rows))
	for _, r := range rows {
		payload, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("encode feature row %s: %w", r.Timestamp.Format(time.RFC3339), err)
		}
		models = append(models, featureRow{
			GroupName: s.groupName,
			Version:   s.version,
			Timestamp: r.Timestamp.UTC(),
			City:      r.City,
			Payload:   string(payload),
		})
	}

	// Duplicate timestamps keep the most recently written record.
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_name"}, {Name: "version"}, {Name: "ts"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "payload"}),
	}).Create(&models)
	if res.Error != nil {
		return fmt.Errorf("insert feature rows: %w", res.Error)
	}
	return nil
}

func (s *SQLiteStore) ReadAll(ctx context.Context) ([]feature.Record, error) {
	return s.read(ctx, s.scope(ctx))
}

func (s *SQLiteStore) ReadSince(ctx context.Context, since time.Time) ([]feature.Record, error) {
	return s.read(ctx, s.scope(ctx).Where("ts >= ?", since.UTC()))
}

func (s *SQLiteStore) Latest(ctx context.Context) (feature.Record, error) {
	var row featureRow
	res := s.scope(ctx).Order("ts DESC").Limit(1).Find(&row)
	if res.Error != nil {
		return feature.Record{}, fmt.Errorf("read latest feature row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return feature.Record{}, ErrNotFound
	}
	return decodeRow(row)
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	res := s.db.WithContext(ctx).
		Where("group_name = ? AND version = ?", s.groupName, s.version).
		Delete(&featureRow{})
	if res.Error != nil {
		return fmt.Errorf("delete feature group: %w", res.Error)
	}
	return nil
}

func (s *SQLiteStore) scope(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&featureRow{}).
		Where("group_name = ? AND version = ?", s.groupName, s.version)
}

func (s *SQLiteStore) read(ctx context.Context, q *gorm.DB) ([]feature.Record, error) {
	var rows []featureRow
	if err := q.Order("ts ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read feature rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	records := make([]feature.Record, 0, len(rows))
	for _, row := range rows {
		r, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRow(row featureRow) (feature.Record, error) {
	r := feature.NewRecord(row.Timestamp.UTC(), row.City)
	if err := json.Unmarshal([]byte(row.Payload), &r.Fields); err != nil {
		return feature.Record{}, fmt.Errorf("decode feature row %s: %w", row.Timestamp.Format(time.RFC3339), err)
	}
	return r, nil
}
