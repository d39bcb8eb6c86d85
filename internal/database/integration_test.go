package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	tables := []string{"users", "teams", "sessions", "bad_words", "migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again must be a no-op
	if err := db.RunMigrations(ctx, MigrationsDir(), zap.NewNop()); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM migrations"); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", "anna", "hash")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE username = ?", "anna"); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", "ben", "hash"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE username = ?", "ben"); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

func TestUniqueViolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	id, err := db.ExecReturningID(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", "anna", "hash")
	if err != nil {
		t.Fatalf("ExecReturningID() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("ExecReturningID() = %d, want positive id", id)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", "anna", "other")
	if err == nil {
		t.Fatal("expected duplicate username to fail")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
	if db.Dialect.IsUniqueViolation(errors.New("plain")) {
		t.Error("IsUniqueViolation(plain error) = true, want false")
	}
}

func TestBadWords(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := db.SeedBadWords(ctx, "", zap.NewNop()); err != nil {
			t.Fatalf("SeedBadWords() run %d error = %v", i, err)
		}
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bad_words"); err != nil {
		t.Fatalf("Failed to count bad words: %v", err)
	}
	if count != len(DefaultBadWords) {
		t.Errorf("bad_words count = %d, want %d", count, len(DefaultBadWords))
	}

	tests := []struct {
		text    string
		wantHit bool
	}{
		{"1) Joh 3:16 Denn also hat Gott die Welt geliebt", false},
		{"Ein IDIOT schreibt das", true},
		{"skills", true}, // substring match
	}
	for _, tt := range tests {
		_, hit, err := db.ContainsBadWord(ctx, tt.text)
		if err != nil {
			t.Fatalf("ContainsBadWord() error = %v", err)
		}
		if hit != tt.wantHit {
			t.Errorf("ContainsBadWord(%q) = %v, want %v", tt.text, hit, tt.wantHit)
		}
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", "concurrent", "hash"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.ExecContext(ctx, "UPDATE users SET points = points + 1 WHERE username = ?", "concurrent")
			if err != nil {
				t.Errorf("Concurrent update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	var points int
	if err := db.GetContext(ctx, &points, "SELECT points FROM users WHERE username = ?", "concurrent"); err != nil {
		t.Fatalf("Failed to read points: %v", err)
	}
	if points != 10 {
		t.Errorf("points = %d, want 10", points)
	}
}
