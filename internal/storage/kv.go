// Package storage provides persistence for MindfulTube agent state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mindfultube/mindfultube/internal/core"
)

var errMissingPath = errors.New("path is required for file databases")

// KV is the best-effort key-value store every agent persists into.
// Each agent owns a disjoint set of keys (see core.Key*).
type KV interface {
	// Get returns core.ErrRecordNotFound when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}

// LoadJSON decodes the value stored under key into dst.
// It reports false with a nil error when the key does not exist.
func LoadJSON(ctx context.Context, kv KV, key string, dst interface{}) (bool, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(ctx context.Context, kv KV, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrPersistFailed, key, err)
	}
	return nil
}

// Snapshot returns every stored key with its raw value
func Snapshot(ctx context.Context, kv KV) (map[string]json.RawMessage, error) {
	keys, err := kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		data, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, core.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if !json.Valid(data) {
			continue
		}
		out[key] = json.RawMessage(data)
	}
	return out, nil
}
