package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/database"
	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

// BlobStore implements repository.BlobStore using Redis strings.
type BlobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBlobStore creates a Redis-backed store. A ttl of zero keeps keys forever.
func NewBlobStore(client *redis.Client, ttl time.Duration) *BlobStore {
	return &BlobStore{
		client: client,
		ttl:    ttl,
	}
}

// Read returns the blob stored under key.
func (s *BlobStore) Read(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "Read", "GET")
	defer func() { end(err) }()

	data, err = s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("blob", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Write stores data under key with the configured TTL.
func (s *BlobStore) Write(ctx context.Context, key string, data []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "redis", "Write", "SET")
	defer func() { end(err) }()

	if err = s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
