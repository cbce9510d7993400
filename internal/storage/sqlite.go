// Package storage provides persistence for MindfulTube agent state.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn     *sql.DB
	path     string
	isMemory bool
}

// Config for database initialization
type Config struct {
	Path     string // Path to database file
	InMemory bool   // Use in-memory database (for testing)
}

// Open opens or creates a SQLite database
func Open(cfg Config) (*DB, error) {
	var dsn string
	var isMemory bool

	if cfg.InMemory {
		dsn = ":memory:"
		isMemory = true
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path: %w", errMissingPath)
		}
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = cfg.Path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the in-memory database alive and
	// serializes writes.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{
		conn:     conn,
		path:     cfg.Path,
		isMemory: isMemory,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for direct access
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path ("" for in-memory)
func (db *DB) Path() string {
	return db.path
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
