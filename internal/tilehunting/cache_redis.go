package tilehunting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisBackend shares aggregation results between server processes.
// Values are stored as JSON under "tilehunting:{namespace}:{key}".
type RedisBackend[T any] struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func NewRedisBackend[T any](client *redis.Client, namespace string, ttl time.Duration) *RedisBackend[T] {
	return &RedisBackend[T]{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

var _ CacheBackend[int] = (*RedisBackend[int])(nil)

func (b *RedisBackend[T]) keyFor(k string) string {
	return "tilehunting:" + b.namespace + ":" + k
}

func (b *RedisBackend[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var value T

	data, err := b.client.Get(ctx, b.keyFor(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached value: %w", err)
	}

	return value, true, nil
}

func (b *RedisBackend[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	if err := b.client.Set(ctx, b.keyFor(key), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func (b *RedisBackend[T]) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string

	iter := b.client.Scan(ctx, 0, b.keyFor(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan error: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := b.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del error: %w", err)
	}

	return int(removed), nil
}
