package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisRepository is a key/value store for funds ledgers backed by redis.
// Keys are namespaced with a fixed prefix so the ledger can share a database.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a RedisRepository that stores keys under prefix.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

// Get retrieves the value stored under key.
func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return value, true, nil
}

// PutAll writes every entry in a MULTI/EXEC block.
func (r *RedisRepository) PutAll(ctx context.Context, entries map[string][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, r.prefix+key, value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger to redis: %w", err)
	}
	return nil
}

// Ping verifies the redis connection is alive.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
