package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

const testKey = "@RocketShoes:cart"

func setupTestRedis(t *testing.T, ttl time.Duration) (*BlobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBlobStore(client, ttl), mr
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func TestBlobStore_Read_Success(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set(testKey, `[{"id":1,"amount":2}]`))

	got, err := store.Read(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"amount":2}]`, string(got))
}

func TestBlobStore_Read_NotFound(t *testing.T) {
	store, _ := setupTestRedis(t, 0)

	got, err := store.Read(context.Background(), testKey)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBlobStore_Read_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Read(context.Background(), testKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "redis get")
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

func TestBlobStore_Write_Overwrites(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, testKey, []byte(`[]`)))
	require.NoError(t, store.Write(ctx, testKey, []byte(`[{"id":3,"amount":1}]`)))

	raw, err := mr.Get(testKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":3,"amount":1}]`, raw)
}

func TestBlobStore_Write_NoTTLByDefault(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, store.Write(context.Background(), testKey, []byte(`[]`)))

	assert.Equal(t, time.Duration(0), mr.TTL(testKey))
}

func TestBlobStore_Write_TTL(t *testing.T) {
	store, mr := setupTestRedis(t, 24*time.Hour)
	require.NoError(t, store.Write(context.Background(), testKey, []byte(`[]`)))

	ttl := mr.TTL(testKey)
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)

	mr.FastForward(25 * time.Hour)
	_, err := store.Read(context.Background(), testKey)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBlobStore_Write_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	err := store.Write(context.Background(), testKey, []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}

func TestBlobStore_Ping(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
