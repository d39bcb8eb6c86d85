package models

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrFragmentOutOfRange = errors.New("fragment index out of range")
	ErrFragmentUsed       = errors.New("fragment already selected")
	ErrSelectionComplete  = errors.New("all fragments already selected")
)

// DiffSegment is one fragment of a judged submission
type DiffSegment struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`
}

// Feedback is the verdict on a complete selection
type Feedback struct {
	Correct     bool          `json:"correct"`
	Segments    []DiffSegment `json:"segments,omitempty"`
	CorrectText string        `json:"correct_text,omitempty"`
}

// Attempt is the in-memory state of reassembling one unit.
// Fragments are held in display (shuffled) order; Selection holds display indices.
type Attempt struct {
	UnitIndex     int
	Fragments     []string
	Selection     []int
	Used          []bool
	TokenCount    int
	PointsApplied bool
	Advanced      bool
	StartedAt     time.Time
	Feedback      *Feedback
}

// NewAttempt shuffles fragments into display order
func NewAttempt(unitIndex int, fragments []string, tokenCount int, rng *rand.Rand, now time.Time) *Attempt {
	shuffled := append([]string(nil), fragments...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &Attempt{
		UnitIndex:  unitIndex,
		Fragments:  shuffled,
		Used:       make([]bool, len(shuffled)),
		TokenCount: tokenCount,
		StartedAt:  now,
	}
}

// Choose appends the fragment at displayIndex to the selection
func (a *Attempt) Choose(displayIndex int) error {
	if displayIndex < 0 || displayIndex >= len(a.Fragments) {
		return ErrFragmentOutOfRange
	}
	if a.IsComplete() {
		return ErrSelectionComplete
	}
	if a.Used[displayIndex] {
		return ErrFragmentUsed
	}
	a.Used[displayIndex] = true
	a.Selection = append(a.Selection, displayIndex)
	a.Feedback = nil
	return nil
}

// Undo removes the most recently selected fragment. It returns false when
// nothing was selected.
func (a *Attempt) Undo() bool {
	if len(a.Selection) == 0 {
		return false
	}
	last := a.Selection[len(a.Selection)-1]
	a.Selection = a.Selection[:len(a.Selection)-1]
	a.Used[last] = false
	a.Feedback = nil
	return true
}

// Reset clears the selection so the unit can be tried again
func (a *Attempt) Reset() {
	a.Selection = nil
	for i := range a.Used {
		a.Used[i] = false
	}
}

// IsComplete reports whether every fragment has been selected
func (a *Attempt) IsComplete() bool {
	return len(a.Fragments) > 0 && len(a.Selection) == len(a.Fragments)
}

// Selected returns the fragment texts in selection order
func (a *Attempt) Selected() []string {
	out := make([]string, len(a.Selection))
	for i, idx := range a.Selection {
		out[i] = a.Fragments[idx]
	}
	return out
}

// Elapsed returns the whole seconds spent on the attempt
func (a *Attempt) Elapsed(now time.Time) int64 {
	if a.StartedAt.IsZero() || now.Before(a.StartedAt) {
		return 0
	}
	return int64(now.Sub(a.StartedAt) / time.Second)
}
