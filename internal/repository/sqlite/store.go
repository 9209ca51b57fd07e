package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/database"
	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

// kvEntry is one row of the key/value table.
type kvEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (kvEntry) TableName() string { return "kv_entries" }

// BlobStore implements repository.BlobStore on a SQLite table via gorm.
type BlobStore struct {
	db *gorm.DB
}

// NewBlobStore creates the store and migrates its table.
func NewBlobStore(ctx context.Context, db *gorm.DB) (*BlobStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &BlobStore{db: db}, nil
}

// Read returns the blob stored under key.
func (s *BlobStore) Read(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "sqlite", "Read", "SELECT value FROM kv_entries WHERE key = ?")
	defer func() { end(err) }()

	var entry kvEntry
	err = s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("blob", key)
		}
		return nil, fmt.Errorf("sqlite read %s: %w", key, err)
	}
	return entry.Value, nil
}

// Write inserts or replaces the blob under key.
func (s *BlobStore) Write(ctx context.Context, key string, data []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "sqlite", "Write", "INSERT INTO kv_entries ... ON CONFLICT (key) DO UPDATE")
	defer func() { end(err) }()

	entry := kvEntry{Key: key, Value: data, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sqlite write %s: %w", key, err)
	}
	return nil
}

// Ping checks the database handle.
func (s *BlobStore) Ping(ctx context.Context) error {
	return database.PingGorm(ctx, s.db)
}
