// Package traversal decides which unit of a text is studied next.
package traversal

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"verselearn/internal/models"
)

var (
	ErrNoContent       = errors.New("text has no units")
	ErrAtFirstUnit     = errors.New("already at the first unit")
	ErrBackUnsupported = errors.New("going back is only possible in linear mode")
	ErrUnknownMode     = errors.New("unknown traversal mode")
)

// Position is the resolved unit to present
type Position struct {
	Index int
	// Completed is set for linear texts that have been finished before
	Completed bool
}

// Transition describes what a successful attempt or a skip changed
type Transition struct {
	// JustCompleted is true only on the attempt that first finished a linear text
	JustCompleted bool
	// PassFinished is true when a random pass has shown its last unit
	PassFinished bool
}

// Planner mutates Progress in place. It is safe for concurrent use.
type Planner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a planner drawing permutations from rng. A nil rng is seeded
// from the clock.
func New(rng *rand.Rand) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{rng: rng}
}

func (pl *Planner) permutation(n int) []int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.rng.Perm(n)
}

// Resolve returns the unit to present. changed reports whether p was
// repaired or a new random pass was started and should be persisted.
func (pl *Planner) Resolve(p *models.Progress, n int) (Position, bool, error) {
	if n <= 0 {
		return Position{}, false, ErrNoContent
	}

	switch p.Mode {
	case models.ModeRandom:
		changed := pl.maintainPass(p, n)
		return Position{Index: p.RandomPass.Order[p.RandomPass.Cursor]}, changed, nil
	case models.ModeLinear, "":
		idx := clamp(p.LastIndex, n)
		changed := idx != p.LastIndex || p.Mode == ""
		p.Mode = models.ModeLinear
		p.LastIndex = idx
		return Position{Index: idx, Completed: p.CompletedLinear}, changed, nil
	default:
		return Position{}, false, ErrUnknownMode
	}
}

// Correct advances p after the current unit was reassembled correctly
func (pl *Planner) Correct(p *models.Progress, n int) (Transition, error) {
	if n <= 0 {
		return Transition{}, ErrNoContent
	}

	switch p.Mode {
	case models.ModeRandom:
		pl.maintainPass(p, n)
		rp := &p.RandomPass
		rp.ShownCount = min(rp.ShownCount+1, n)
		rp.Cursor++
		return Transition{PassFinished: rp.Cursor >= len(rp.Order)}, nil
	case models.ModeLinear, "":
		p.Mode = models.ModeLinear
		i := clamp(p.LastIndex, n)
		if i < n-1 {
			p.LastIndex = i + 1
			return Transition{}, nil
		}
		p.LastIndex = 0
		if p.CompletedLinear {
			return Transition{}, nil
		}
		p.CompletedLinear = true
		return Transition{JustCompleted: true}, nil
	default:
		return Transition{}, ErrUnknownMode
	}
}

// Skip moves past the current unit without credit. shown reports whether the
// unit was actually presented; skipping an empty unit does not count it.
func (pl *Planner) Skip(p *models.Progress, n int, shown bool) (Transition, error) {
	if n <= 0 {
		return Transition{}, ErrNoContent
	}

	switch p.Mode {
	case models.ModeRandom:
		pl.maintainPass(p, n)
		rp := &p.RandomPass
		if shown {
			rp.ShownCount = min(rp.ShownCount+1, n)
		}
		rp.Cursor++
		return Transition{PassFinished: rp.Cursor >= len(rp.Order)}, nil
	case models.ModeLinear, "":
		p.Mode = models.ModeLinear
		p.LastIndex = (clamp(p.LastIndex, n) + 1) % n
		return Transition{}, nil
	default:
		return Transition{}, ErrUnknownMode
	}
}

// Back moves a linear text to the previous unit
func (pl *Planner) Back(p *models.Progress, n int) error {
	if n <= 0 {
		return ErrNoContent
	}
	if p.Mode == models.ModeRandom {
		return ErrBackUnsupported
	}
	i := clamp(p.LastIndex, n)
	if i == 0 {
		return ErrAtFirstUnit
	}
	p.LastIndex = i - 1
	return nil
}

// SwitchMode changes the traversal mode. LastIndex is kept so linear study
// resumes where it stopped; the random pass always starts over.
func (pl *Planner) SwitchMode(p *models.Progress, mode models.Mode, n int) (bool, error) {
	if mode != models.ModeLinear && mode != models.ModeRandom {
		return false, ErrUnknownMode
	}
	if p.Mode == mode {
		return false, nil
	}

	p.Mode = mode
	p.RandomPass = models.RandomPass{}
	if mode == models.ModeRandom && n > 0 {
		p.RandomPass.Order = pl.permutation(n)
	}
	return true, nil
}

// Fraction is the share of the text covered, for progress display
func Fraction(p *models.Progress, pos Position, n int) float64 {
	if n <= 0 {
		return 0
	}
	if p.Mode == models.ModeRandom {
		return float64(min(p.RandomPass.ShownCount, n)) / float64(n)
	}
	if pos.Completed {
		return 1
	}
	return float64(pos.Index+1) / float64(n)
}

// maintainPass repairs a damaged pass or starts a new one when the current
// pass is exhausted. It reports whether p changed.
func (pl *Planner) maintainPass(p *models.Progress, n int) bool {
	rp := &p.RandomPass
	switch {
	case !isPermutation(rp.Order, n):
		rp.Order = pl.permutation(n)
		rp.Cursor = 0
		rp.ShownCount = max(0, min(rp.ShownCount, n))
		return true
	case rp.Cursor < 0:
		rp.Cursor = 0
		return true
	case rp.Cursor >= len(rp.Order):
		rp.Order = pl.permutation(n)
		rp.Cursor = 0
		rp.ShownCount = 0
		return true
	}
	return false
}

func isPermutation(order []int, n int) bool {
	if len(order) != n || n == 0 {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
