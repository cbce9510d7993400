// Package storage provides persistence for MindfulTube agent state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mindfultube/mindfultube/internal/core"
)

// RedisConfig configures the Redis backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Namespace for all keys, e.g. "mindfultube:"
}

// RedisKV stores agent state in Redis under a key prefix
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV connects to Redis and verifies the connection
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisKVFromClient(client, cfg.Prefix), nil
}

// NewRedisKVFromClient wraps an existing client
func NewRedisKVFromClient(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "mindfultube:"
	}
	return &RedisKV{client: client, prefix: prefix}
}

// Close closes the Redis connection
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// Get returns the value stored under key
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put stores value without expiry
func (r *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Delete removes the given keys
func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.client.Del(ctx, full...).Err()
}

// Keys lists keys under the prefix in name order
func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
