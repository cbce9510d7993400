// Package testutil provides shared testing utilities for MindfulTube.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mindfultube/mindfultube/internal/storage"
)

// TestKV returns a key-value store over a fresh, migrated in-memory
// database that is closed when the test completes.
func TestKV(t *testing.T) *storage.SQLiteKV {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return storage.NewSQLiteKV(db)
}

// TestContext returns a context cancelled when the test completes or after
// 30 seconds, whichever comes first.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
