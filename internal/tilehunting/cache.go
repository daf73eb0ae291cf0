package tilehunting

import (
	"context"
	"fmt"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/metrics"
)

// CacheBackend stores aggregation results by key
type CacheBackend[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// AggregationCache memoizes per-user aggregation results.
//
// There is no per-key lock: concurrent misses on one key each compute and the
// last write wins. Computations are pure functions of the tile store, so any
// stored value is correct; only work is duplicated.
//
// Values returned by the memory backend are the stored values themselves and
// must be treated as read-only; copy before modifying.
type AggregationCache[T any] struct {
	name    string
	backend CacheBackend[T]
	logger  logger.Logger
}

func NewAggregationCache[T any](name string, backend CacheBackend[T], l logger.Logger) *AggregationCache[T] {
	return &AggregationCache[T]{
		name:    name,
		backend: backend,
		logger:  l,
	}
}

// Key builds the cache key of a user and filter
func Key(userID int64, filter models.TileFilter) string {
	return filter.CacheKey(userID)
}

// GetOrCompute returns the cached value for key or computes and stores it.
// A failing backend read is treated as a miss, a failing write only logged.
func (c *AggregationCache[T]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	value, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("aggregation cache read failed, recomputing", "cache", c.name, "key", key, "error", err)
	}
	if ok && err == nil {
		metrics.AggregationCacheHits.WithLabelValues(c.name).Inc()
		return value, nil
	}

	metrics.AggregationCacheMisses.WithLabelValues(c.name).Inc()
	c.logger.Debug("creating aggregation cache entry", "cache", c.name, "key", key)

	value, err = compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := c.backend.Set(ctx, key, value); err != nil {
		c.logger.Warn("aggregation cache write failed", "cache", c.name, "key", key, "error", err)
	}

	return value, nil
}

// InvalidateByUser drops every entry of userID regardless of its filter.
// It must run synchronously after each write to the user's visited tiles.
func (c *AggregationCache[T]) InvalidateByUser(ctx context.Context, userID int64) error {
	removed, err := c.backend.DeletePrefix(ctx, models.UserCachePrefix(userID))
	if err != nil {
		return fmt.Errorf("failed to invalidate %s cache for user %d: %w", c.name, userID, err)
	}

	metrics.AggregationCacheInvalidations.WithLabelValues(c.name).Add(float64(removed))
	c.logger.Debug("invalidated aggregation cache entries", "cache", c.name, "user_id", userID, "removed", removed)
	return nil
}

// Name identifies the cache in logs and metrics
func (c *AggregationCache[T]) Name() string {
	return c.name
}
