package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		dev  bool
		want zapcore.Level
	}{
		{"debug", false, zapcore.DebugLevel},
		{"warning", false, zapcore.WarnLevel},
		{"error", false, zapcore.ErrorLevel},
		{"", true, zapcore.DebugLevel},
		{"", false, zapcore.InfoLevel},
		{"nonsense", true, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := levelFromString(tt.in, tt.dev); got != tt.want {
			t.Errorf("levelFromString(%q, %v) = %v, want %v", tt.in, tt.dev, got, tt.want)
		}
	}
}

func TestNewWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	lg, err := New(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	lg.Info("hello")
	_ = lg.Sync()

	if _, err := os.Lstat(path); err != nil {
		t.Fatalf("expected rotated log link at %s: %v", path, err)
	}
}
