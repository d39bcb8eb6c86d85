package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"verselearn/internal/database"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "verselearn.db"))
	t.Setenv("MIGRATIONS_PATH", database.MigrationsDir())
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"backup", "export"},
		{"backup", "import"},
		{"texts", "import"},
		{"texts", "delete"},
		{"progress", "reset"},
		{"leaderboard"},
		{"users"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestRequiredFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"backup import without input", []string{"backup", "import"}},
		{"progress reset without user", []string{"progress", "reset", "--title", "Psalm 23"}},
		{"texts delete without title", []string{"texts", "delete"}},
		{"texts import without file", []string{"texts", "import"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, tt.args...); err == nil {
				t.Errorf("%v: expected an error", tt.args)
			}
		})
	}
}

func TestTextsImportAndBackup(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dir := setupEnv(t)

	csvPath := filepath.Join(dir, "texts.csv")
	content := "title,language,text\n" +
		"Liebe,DE,1) 1Joh 4:16 Gott ist Liebe\n" +
		"Kaputt,DE,no reference here\n"
	if err := os.WriteFile(csvPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, err := runCmd(t, "texts", "import", csvPath)
	if err != nil {
		t.Fatalf("texts import error = %v", err)
	}
	if !strings.Contains(out, "Added 1, skipped 1") {
		t.Errorf("texts import output = %q", out)
	}

	backupPath := filepath.Join(dir, "out", "backup.json")
	if _, err := runCmd(t, "backup", "export", "-o", backupPath); err != nil {
		t.Fatalf("backup export error = %v", err)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if !strings.Contains(string(data), "Liebe") {
		t.Error("backup does not contain the imported catalog text")
	}

	if _, err := runCmd(t, "texts", "delete", "--lang", "de", "--title", "Liebe"); err != nil {
		t.Errorf("texts delete error = %v", err)
	}
	if _, err := runCmd(t, "texts", "delete", "--title", "Liebe"); err == nil {
		t.Error("deleting a missing text should fail")
	}
}

func TestProgressResetUnknownText(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	setupEnv(t)

	if _, err := runCmd(t, "progress", "reset", "--user", "anna", "--title", "Fehlt"); err == nil {
		t.Error("expected an error for an unknown text")
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	setupEnv(t)

	out, err := runCmd(t, "leaderboard")
	if err != nil {
		t.Fatalf("leaderboard error = %v", err)
	}
	if !strings.Contains(out, "LEARNER") || !strings.Contains(out, "MEMBERS") {
		t.Errorf("leaderboard output = %q", out)
	}
}
