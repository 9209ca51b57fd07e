package repository

import "context"

// BlobStore is a key/value store for opaque byte blobs that survives restarts.
type BlobStore interface {
	// Read returns the blob under key, or an error wrapping apperrors.ErrNotFound
	// when nothing has been written yet.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the blob under key.
	Write(ctx context.Context, key string, data []byte) error
}

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
