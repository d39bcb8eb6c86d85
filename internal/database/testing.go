package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap"
)

// MigrationsDir returns the repository migrations directory, located relative
// to this source file so tests in any package can find it.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewTestDB opens a migrated SQLite database in a temporary directory.
// Integration tests in other packages use it behind testing.Short().
func NewTestDB(tb testing.TB) *DB {
	tb.Helper()

	db, err := Initialize(filepath.Join(tb.TempDir(), "test.db"))
	if err != nil {
		tb.Fatalf("Failed to initialize database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background(), MigrationsDir(), zap.NewNop()); err != nil {
		tb.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
