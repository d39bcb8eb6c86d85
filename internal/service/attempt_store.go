package service

import (
	"sync"
	"time"

	"verselearn/internal/models"
)

// AttemptKey identifies the unit an attempt belongs to
type AttemptKey struct {
	UserID    int64
	Language  string
	Title     string
	UnitIndex int
}

type attemptEntry struct {
	key     AttemptKey
	attempt *models.Attempt
	touched time.Time
}

// AttemptStore keeps at most one open attempt per user. Storing an attempt
// for a different unit, text or mode replaces the previous one, so moving on
// never carries partial credit along.
type AttemptStore struct {
	mu      sync.Mutex
	entries map[int64]*attemptEntry
	now     func() time.Time
}

// NewAttemptStore creates an empty store
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		entries: make(map[int64]*attemptEntry),
		now:     time.Now,
	}
}

// Get returns the user's attempt if it belongs to key
func (s *AttemptStore) Get(key AttemptKey) (*models.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key.UserID]
	if !ok || e.key != key {
		return nil, false
	}
	e.touched = s.now()
	return e.attempt, true
}

// Put stores attempt as the user's open attempt
func (s *AttemptStore) Put(key AttemptKey, attempt *models.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.UserID] = &attemptEntry{key: key, attempt: attempt, touched: s.now()}
}

// Discard drops the user's open attempt, whatever unit it belongs to
func (s *AttemptStore) Discard(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Sweep drops attempts not touched within maxIdle and reports how many
func (s *AttemptStore) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for userID, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of open attempts
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
