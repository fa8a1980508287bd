// Package repository maps the record model onto storage.Store keys. Every
// collection is one JSON array written back whole on each mutation.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"salgados/internal/models"
	"salgados/internal/storage"
)

// Snapshot is a collection as read, with the fingerprint of the stored bytes.
// Version is 0 for an absent key.
type Snapshot[T any] struct {
	Items   []T
	Version uint64
}

// Collection is a typed view of one store key holding a JSON array.
// With strict set, Save fails when the stored value changed since Load.
type Collection[T any] struct {
	store  storage.Store
	key    string
	strict bool

	mu sync.Mutex
}

func NewCollection[T any](store storage.Store, key string, strict bool) *Collection[T] {
	return &Collection[T]{store: store, key: key, strict: strict}
}

func (c *Collection[T]) Key() string { return c.key }

func (c *Collection[T]) Load(ctx context.Context) (Snapshot[T], error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("read %s: %w", c.key, err)
	}
	if !ok {
		return Snapshot[T]{Items: []T{}}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return Snapshot[T]{}, fmt.Errorf("decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return Snapshot[T]{Items: items, Version: version(raw, true)}, nil
}

// Save writes items back. In strict mode the version read by Load must still be current.
func (c *Collection[T]) Save(ctx context.Context, readVersion uint64, items []T) error {
	if c.strict {
		raw, ok, err := c.store.Get(ctx, c.key)
		if err != nil {
			return fmt.Errorf("read %s: %w", c.key, err)
		}
		if current := version(raw, ok); current != readVersion {
			return &models.ConcurrentModificationError{Key: c.key, Expected: readVersion, Actual: current}
		}
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

// Update runs one read-modify-write cycle. fn receives a fresh read and returns
// the collection to persist; an error from fn aborts without writing.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(snap.Items)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx, snap.Version, next); err != nil {
		return nil, err
	}
	return next, nil
}

func version(raw []byte, ok bool) uint64 {
	if !ok {
		return 0
	}
	return xxhash.Sum64(raw)
}

// Record is a typed view of one store key holding a single JSON object.
type Record[T any] struct {
	store storage.Store
	key   string
}

func NewRecord[T any](store storage.Store, key string) *Record[T] {
	return &Record[T]{store: store, key: key}
}

func (r *Record[T]) Load(ctx context.Context) (T, bool, error) {
	var v T
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return v, false, fmt.Errorf("read %s: %w", r.key, err)
	}
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return v, true, nil
}

func (r *Record[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}

func (r *Record[T]) Remove(ctx context.Context) error {
	if err := r.store.Remove(ctx, r.key); err != nil {
		return fmt.Errorf("remove %s: %w", r.key, err)
	}
	return nil
}
