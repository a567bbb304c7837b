package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/ticketgate/internal/core"
)

// KeyPrefix namespaces every key written by this service.
const KeyPrefix = "ticketgate:"

// RedisCacheRepo implements core.CacheRepository using Redis.
type RedisCacheRepo struct {
	client redis.UniversalClient
}

// NewRedisCacheRepo creates a new RedisCacheRepo with the given Redis client.
func NewRedisCacheRepo(client redis.UniversalClient) *RedisCacheRepo {
	return &RedisCacheRepo{client: client}
}

func prefixedKey(k string) (string, error) {
	if k == "" {
		return "", ErrEmptyKey
	}
	return KeyPrefix + k, nil
}

// Set stores a value in Redis with the given key and TTL.
func (r *RedisCacheRepo) Set(ctx context.Context, k string, value []byte, ttl time.Duration) error {
	full, err := prefixedKey(k)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, full, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get retrieves a value from Redis by key. A missing key yields nil, nil.
func (r *RedisCacheRepo) Get(ctx context.Context, k string) ([]byte, error) {
	full, err := prefixedKey(k)
	if err != nil {
		return nil, err
	}
	result, err := r.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

// Delete removes a key from Redis.
func (r *RedisCacheRepo) Delete(ctx context.Context, k string) (bool, error) {
	full, err := prefixedKey(k)
	if err != nil {
		return false, err
	}
	n, err := r.client.Del(ctx, full).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// SetIfNotExists atomically sets a key only if it doesn't already exist.
// SET with NX and a TTL in one command; a separate EXPIRE would race.
func (r *RedisCacheRepo) SetIfNotExists(ctx context.Context, k string, value []byte, ttl time.Duration) (bool, error) {
	full, err := prefixedKey(k)
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	status, err := r.client.SetArgs(ctx, full, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// Health checks the health of the Redis connection.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ core.CacheRepository = (*RedisCacheRepo)(nil)
