package database

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteConfig holds the local SQLite database configuration.
type SQLiteConfig struct {
	// Path is a file path or a sqlite DSN such as "file::memory:?cache=shared".
	Path string
}

// NewSQLite opens a gorm connection to SQLite and pings it. The pool is
// capped at one connection since SQLite serialises writers anyway.
func NewSQLite(ctx context.Context, cfg SQLiteConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = connectWithRetry(ctx, "sqlite", logger, func() error {
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if logger != nil {
		logger.InfoContext(ctx, "sqlite database opened", slog.String("path", cfg.Path))
	}
	return conn, nil
}

// PingGorm verifies a gorm connection is reachable.
func PingGorm(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CloseGorm closes the pooled connections behind db.
func CloseGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
