package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Record is the gorm model backing PostgresStore.
type Record struct {
	Key       string `gorm:"column:record_key;primaryKey"`
	Value     string `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string { return "records" }

// PostgresStore implements Store on PostgreSQL through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the records table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate records: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var r Record
	if err := s.db.WithContext(ctx).Where("record_key = ?", key).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("record get %q: %w", key, err)
	}
	return r.Value, nil
}

func (s *PostgresStore) PutMany(ctx context.Context, records map[string]string) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]Record, 0, len(records))
	for _, k := range sortedKeys(records) {
		rows = append(rows, Record{Key: k, Value: records[k], UpdatedAt: now})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("record put: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("record_key IN ?", keys).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("record delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
