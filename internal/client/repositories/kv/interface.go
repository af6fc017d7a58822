// Package kv is the on-device store: string-keyed blobs in a local SQLite
// database. Each guest collection and each piece of persisted session state
// occupies exactly one key; writes are whole-blob overwrites. All partial
// update logic lives in the services above this layer.
package kv

import "context"

// Repository describes the key-value operations of the on-device store.
type Repository interface {
	// Get returns the blob stored under key, or (nil, nil) if the key is
	// absent. A missing key is never an error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the blob stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Clear removes every key.
	Clear(ctx context.Context) error
}
