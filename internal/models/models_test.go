package models

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			if got := session.IsExpired(); got != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in     string
		want   Mode
		wantOK bool
	}{
		{"linear", ModeLinear, true},
		{"RANDOM", ModeRandom, true},
		{" random ", ModeRandom, true},
		{"shuffle", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseMode(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProgressNormalize(t *testing.T) {
	p := Progress{LastIndex: -4, RandomPass: RandomPass{Cursor: -1, ShownCount: -2}}
	p.Normalize()

	if p.Mode != ModeLinear {
		t.Errorf("Mode = %q, want linear", p.Mode)
	}
	if p.LastIndex != 0 || p.RandomPass.Cursor != 0 || p.RandomPass.ShownCount != 0 {
		t.Errorf("negative fields not clamped: %+v", p)
	}

	kept := Progress{Mode: ModeRandom, LastIndex: 3, CompletedLinear: true}
	kept.Normalize()
	if kept.Mode != ModeRandom || kept.LastIndex != 3 || !kept.CompletedLinear {
		t.Errorf("valid progress changed: %+v", kept)
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	for _, code := range []string{"DE", "EN"} {
		if !IsSupportedLanguage(code) {
			t.Errorf("IsSupportedLanguage(%q) = false", code)
		}
	}
	for _, code := range []string{"de", "FR", ""} {
		if IsSupportedLanguage(code) {
			t.Errorf("IsSupportedLanguage(%q) = true", code)
		}
	}
}

func TestAttemptSelection(t *testing.T) {
	fragments := []string{"In the beginning", "was the", "Word"}
	rng := rand.New(rand.NewSource(7))
	a := NewAttempt(2, fragments, 5, rng, time.Now())

	shuffled := append([]string(nil), a.Fragments...)
	sort.Strings(shuffled)
	want := append([]string(nil), fragments...)
	sort.Strings(want)
	for i := range want {
		if shuffled[i] != want[i] {
			t.Fatalf("shuffled fragments %v are not a permutation of %v", a.Fragments, fragments)
		}
	}

	if err := a.Choose(3); !errors.Is(err, ErrFragmentOutOfRange) {
		t.Errorf("Choose(3) error = %v, want ErrFragmentOutOfRange", err)
	}
	if err := a.Choose(1); err != nil {
		t.Fatalf("Choose(1) error = %v", err)
	}
	if err := a.Choose(1); !errors.Is(err, ErrFragmentUsed) {
		t.Errorf("second Choose(1) error = %v, want ErrFragmentUsed", err)
	}

	if !a.Undo() {
		t.Fatal("Undo() = false, want true")
	}
	if a.Used[1] || len(a.Selection) != 0 {
		t.Errorf("Undo() left state %v / %v", a.Used, a.Selection)
	}
	if a.Undo() {
		t.Error("Undo() on empty selection = true")
	}

	for i := range a.Fragments {
		if err := a.Choose(i); err != nil {
			t.Fatalf("Choose(%d) error = %v", i, err)
		}
	}
	if !a.IsComplete() {
		t.Error("IsComplete() = false after selecting every fragment")
	}
	if err := a.Choose(0); !errors.Is(err, ErrSelectionComplete) {
		t.Errorf("Choose after completion error = %v, want ErrSelectionComplete", err)
	}
	got := a.Selected()
	for i := range got {
		if got[i] != a.Fragments[i] {
			t.Errorf("Selected()[%d] = %q, want %q", i, got[i], a.Fragments[i])
		}
	}
}

func TestAttemptElapsed(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := &Attempt{StartedAt: start}

	if got := a.Elapsed(start.Add(90 * time.Second)); got != 90 {
		t.Errorf("Elapsed() = %d, want 90", got)
	}
	if got := a.Elapsed(start.Add(-time.Second)); got != 0 {
		t.Errorf("Elapsed() before start = %d, want 0", got)
	}
	if got := (&Attempt{}).Elapsed(start); got != 0 {
		t.Errorf("Elapsed() without start = %d, want 0", got)
	}
}
