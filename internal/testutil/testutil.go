// Package testutil provides testing utilities and helpers for the landscout task system.
package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/parcelworks/landscout/internal/data"
)

// TestingTB is a subset of testing.TB used by test helpers. Defining it here
// keeps helpers usable from both tests and benchmarks without importing testing.
type TestingTB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// SetupSQLiteDB opens an in-memory SQLite database for store tests and closes
// it when the test finishes.
func SetupSQLiteDB(t TestingTB) *sql.DB {
	t.Helper()

	db, err := data.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal("open in-memory sqlite:", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// SetupSQLiteStore creates a SQLite task store with its schema applied,
// backed by an in-memory database.
func SetupSQLiteStore(t TestingTB, cfg data.StoreConfig) *data.SQLiteTaskStore {
	t.Helper()

	db := SetupSQLiteDB(t)
	store := data.NewSQLiteTaskStore(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal("ensure sqlite schema:", err)
	}
	return store
}
