package memory

import (
	"bytes"
	"context"
	"sync"

	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

// BlobStore is an in-process repository.BlobStore. Contents are lost on exit.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	err   error
}

// NewBlobStore creates an empty in-memory store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Read returns a copy of the blob under key.
func (s *BlobStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, apperrors.NotFound("blob", key)
	}
	return bytes.Clone(data), nil
}

// Write stores a copy of data under key.
func (s *BlobStore) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.blobs[key] = bytes.Clone(data)
	return nil
}

// Ping reports the injected failure, if any.
func (s *BlobStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *BlobStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
