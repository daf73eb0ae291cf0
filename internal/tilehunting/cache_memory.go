package tilehunting

import (
	"context"
	"strings"
	"sync"
)

// MemoryBackend keeps entries in process memory for the lifetime of the process.
// sync.Map only makes single operations safe; it does not serialize computations.
type MemoryBackend[T any] struct {
	m TypedSyncMap[T]
}

type TypedSyncMap[T any] struct {
	m sync.Map
}

func (c *TypedSyncMap[T]) Load(k string) (T, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		var zero T
		return zero, false
	}
	return v.(T), true
}

func (c *TypedSyncMap[T]) Store(k string, v T) {
	c.m.Store(k, v)
}

func (c *TypedSyncMap[T]) DeleteIf(match func(k string) bool) int {
	removed := 0
	c.m.Range(func(key, _ any) bool {
		if k := key.(string); match(k) {
			c.m.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

func NewMemoryBackend[T any]() *MemoryBackend[T] {
	return &MemoryBackend[T]{}
}

var _ CacheBackend[int] = (*MemoryBackend[int])(nil)

func (b *MemoryBackend[T]) Get(_ context.Context, key string) (T, bool, error) {
	v, ok := b.m.Load(key)
	return v, ok, nil
}

func (b *MemoryBackend[T]) Set(_ context.Context, key string, value T) error {
	b.m.Store(key, value)
	return nil
}

func (b *MemoryBackend[T]) DeletePrefix(_ context.Context, prefix string) (int, error) {
	return b.m.DeleteIf(func(k string) bool {
		return strings.HasPrefix(k, prefix)
	}), nil
}
