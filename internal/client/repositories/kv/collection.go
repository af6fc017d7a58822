package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection reads and writes one named list of items as a single JSON
// array blob. Load of an absent key yields an empty slice, never an error.
type Collection[T any] struct {
	repo Repository
	key  string
}

func NewCollection[T any](repo Repository, key string) *Collection[T] {
	return &Collection[T]{repo: repo, key: key}
}

func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	blob, err := c.repo.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(blob, &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", c.key, err)
	}
	return items, nil
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", c.key, err)
	}
	return c.repo.Set(ctx, c.key, blob)
}
