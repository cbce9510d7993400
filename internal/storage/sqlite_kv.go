// Package storage provides persistence for MindfulTube agent state.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
)

// SQLiteKV stores agent state in the agent_state table
type SQLiteKV struct {
	db *DB
}

// NewSQLiteKV creates a key-value store on a migrated database
func NewSQLiteKV(db *DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// Get returns the value stored under key
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT value FROM agent_state WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", key, err)
	}
	return value, nil
}

// Put upserts the value for key
func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO agent_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

// Delete removes the given keys in one transaction
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM agent_state WHERE key = ?", key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists stored keys in name order
func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT key FROM agent_state ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
