package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores scan summaries in Redis. Use it when several hosts
// share one cache; the file backend covers the single-machine case.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to the Redis server at addr and verifies the
// connection with a ping.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get retrieves data by key. Transient failures are retried with backoff;
// a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		ok   bool
	)
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			data, ok = nil, false
			return nil
		case err != nil:
			return Retryable(err)
		}
		data, ok = b, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, ok, nil
}

// Set stores data under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := RetryWithBackoff(ctx, func() error {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close releases the underlying client connections.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
