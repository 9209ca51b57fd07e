package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite_OpensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")

	db, err := NewSQLite(context.Background(), SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseGorm(db) })

	assert.NoError(t, PingGorm(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewSQLite_RequiresPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), SQLiteConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite path is required")
}

func TestCloseGorm_PingAfterCloseFails(t *testing.T) {
	db, err := NewSQLite(context.Background(), SQLiteConfig{Path: filepath.Join(t.TempDir(), "c.db")}, nil)
	require.NoError(t, err)

	require.NoError(t, CloseGorm(db))
	assert.Error(t, PingGorm(context.Background(), db))
}

func TestSQLPoolCollector_Collects(t *testing.T) {
	db, err := NewSQLite(context.Background(), SQLiteConfig{Path: filepath.Join(t.TempDir(), "m.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseGorm(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)

	c := NewSQLPoolCollector(sqlDB, "cart-service")
	assert.Equal(t, "sqlite", c.backend)
	assert.Equal(t, 1, c.stats().MaxOpen)
}
