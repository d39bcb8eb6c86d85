package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/lockmap"
	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/traversal"
	"verselearn/internal/verse"
)

var errPositionMoved = errors.New("position moved since the attempt started")

// StudyContext names the text a request works on
type StudyContext struct {
	UserID   int64
	Username string
	Language string
	Title    string
}

func (sc StudyContext) key(unitIndex int) AttemptKey {
	return AttemptKey{UserID: sc.UserID, Language: sc.Language, Title: sc.Title, UnitIndex: unitIndex}
}

// FragmentView is one button of the fragment picker
type FragmentView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Used  bool   `json:"used"`
}

// Turn is what the client renders after each study request
type Turn struct {
	Language  string           `json:"language"`
	Title     string           `json:"title"`
	Mode      models.Mode      `json:"mode"`
	UnitIndex int              `json:"unit_index"`
	UnitCount int              `json:"unit_count"`
	Ref       string           `json:"ref"`
	Completed bool             `json:"completed"`
	Progress  float64          `json:"progress"`
	EmptyUnit bool             `json:"empty_unit"`
	Fragments []FragmentView   `json:"fragments"`
	Selection []string         `json:"selection"`
	Feedback  *models.Feedback `json:"feedback,omitempty"`

	Solved        bool          `json:"solved"`
	PointsAwarded int64         `json:"points_awarded"`
	JustCompleted bool          `json:"just_completed"`
	PassFinished  bool          `json:"pass_finished"`
	AdvanceAfter  time.Duration `json:"-"`
}

// StudyConfig holds the tunables of a study session
type StudyConfig struct {
	MaxFragments int
	AdvanceAfter time.Duration
}

// StudyService runs the learning loop: present a unit, collect fragment
// choices, judge, credit points and move on.
type StudyService struct {
	progress *repository.ProgressRepository
	planner  *traversal.Planner
	verifier *verse.Verifier
	ledger   *Ledger
	attempts *AttemptStore
	cfg      StudyConfig
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	locks *lockmap.Map[int64]
}

// NewStudyService creates a study service
func NewStudyService(
	progress *repository.ProgressRepository,
	planner *traversal.Planner,
	ledger *Ledger,
	attempts *AttemptStore,
	cfg StudyConfig,
	logger *zap.Logger,
) *StudyService {
	if cfg.MaxFragments < 1 {
		cfg.MaxFragments = verse.DefaultMaxFragments
	}
	return &StudyService{
		progress: progress,
		planner:  planner,
		verifier: verse.NewVerifier(cfg.MaxFragments),
		ledger:   ledger,
		attempts: attempts,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		locks:    lockmap.New[int64](),
	}
}

// lockUser serializes the requests of one user
func (s *StudyService) lockUser(userID int64) func() {
	return s.locks.Lock(userID)
}

type studyState struct {
	rec     *models.TextRecord
	pos     traversal.Position
	unit    models.Unit
	attempt *models.Attempt
}

// resolve loads the text, settles on the unit to present and finds or creates
// its attempt. Repairs made by the planner are persisted.
func (s *StudyService) resolve(sc StudyContext) (*studyState, error) {
	rec, err := s.progress.Get(sc.Username, sc.Language, sc.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if rec == nil {
		return nil, ErrTextNotFound
	}

	pos, changed, err := s.planner.Resolve(&rec.Progress, len(rec.Units))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.progress.Save(sc.Username, sc.Language, sc.Title, *rec); err != nil {
			return nil, fmt.Errorf("failed to save progress: %w", err)
		}
	}

	st := &studyState{rec: rec, pos: pos, unit: rec.Units[pos.Index]}
	tokens := verse.Tokenize(st.unit.Text)
	if len(tokens) == 0 {
		s.attempts.Discard(sc.UserID)
		return st, nil
	}

	key := sc.key(pos.Index)
	a, ok := s.attempts.Get(key)
	if !ok {
		fragments := verse.Chunk(tokens, s.cfg.MaxFragments)
		s.rngMu.Lock()
		a = models.NewAttempt(pos.Index, fragments, len(tokens), s.rng, s.now())
		s.rngMu.Unlock()
		s.attempts.Put(key, a)
	}
	st.attempt = a
	return st, nil
}

func (s *StudyService) turn(sc StudyContext, st *studyState) *Turn {
	n := len(st.rec.Units)
	t := &Turn{
		Language:  sc.Language,
		Title:     sc.Title,
		Mode:      st.rec.Progress.Mode,
		UnitIndex: st.pos.Index,
		UnitCount: n,
		Ref:       st.unit.Ref,
		Completed: st.pos.Completed,
		Progress:  traversal.Fraction(&st.rec.Progress, st.pos, n),
		EmptyUnit: st.attempt == nil,
	}
	if st.attempt == nil {
		return t
	}

	a := st.attempt
	t.Fragments = make([]FragmentView, len(a.Fragments))
	for i, f := range a.Fragments {
		t.Fragments[i] = FragmentView{Index: i, Text: f, Used: a.Used[i]}
	}
	t.Selection = a.Selected()
	t.Feedback = a.Feedback
	return t
}

// Current returns the unit to study now. An attempt left solved but not yet
// credited by an earlier failure is settled again first.
func (s *StudyService) Current(ctx context.Context, sc StudyContext) (*Turn, error) {
	unlock := s.lockUser(sc.UserID)
	defer unlock()

	st, err := s.resolve(sc)
	if err != nil {
		return nil, err
	}
	if a := st.attempt; a != nil && a.IsComplete() && a.Feedback != nil && a.Feedback.Correct {
		return s.evaluate(ctx, sc, st)
	}
	return s.turn(sc, st), nil
}

// Choose appends the fragment at displayIndex to the selection and judges
// the attempt once every fragment is used.
func (s *StudyService) Choose(ctx context.Context, sc StudyContext, displayIndex int) (*Turn, error) {
	unlock := s.lockUser(sc.UserID)
	defer unlock()

	st, err := s.resolve(sc)
	if err != nil {
		return nil, err
	}
	if st.attempt == nil {
		return s.turn(sc, st), nil
	}
	if err := st.attempt.Choose(displayIndex); err != nil {
		return nil, err
	}
	if !st.attempt.IsComplete() {
		return s.turn(sc, st), nil
	}
	return s.evaluate(ctx, sc, st)
}

// Undo removes the last chosen fragment
func (s *StudyService) Undo(ctx context.Context, sc StudyContext) (*Turn, error) {
	unlock := s.lockUser(sc.UserID)
	defer unlock()

	st, err := s.resolve(sc)
	if err != nil {
		return nil, err
	}
	if st.attempt != nil {
		st.attempt.Undo()
	}
	return s.turn(sc, st), nil
}

// evaluate judges a complete selection. A correct one is settled, the
// progress advanced and the attempt dropped; the client shows the result for
// AdvanceAfter before asking for the next unit.
func (s *StudyService) evaluate(ctx context.Context, sc StudyContext, st *studyState) (*Turn, error) {
	a := st.attempt
	fb := s.verifier.Verify(a.Selected(), st.unit.Text)
	a.Feedback = &fb
	if !fb.Correct {
		return s.turn(sc, st), nil
	}

	applied, err := s.ledger.Settle(ctx, sc.UserID, a)
	if err != nil {
		return nil, err
	}

	var tr traversal.Transition
	rec := st.rec
	if !a.Advanced {
		updated, err := s.progress.Update(sc.Username, sc.Language, sc.Title, func(r *models.TextRecord) error {
			n := len(r.Units)
			pos, _, err := s.planner.Resolve(&r.Progress, n)
			if err != nil {
				return err
			}
			if pos.Index != a.UnitIndex {
				return errPositionMoved
			}
			tr, err = s.planner.Correct(&r.Progress, n)
			return err
		})
		switch {
		case errors.Is(err, errPositionMoved):
			s.logger.Info("progress moved during attempt, not advancing",
				zap.String("user", sc.Username),
				zap.String("title", sc.Title),
				zap.Int("unit", a.UnitIndex))
		case err != nil:
			return nil, s.updateError(err)
		default:
			rec = updated
		}
		a.Advanced = true
	}
	s.attempts.Discard(sc.UserID)

	completed := rec.Progress.Mode == models.ModeLinear && rec.Progress.CompletedLinear

	t := s.turn(sc, st)
	t.Mode = rec.Progress.Mode
	t.Completed = completed
	t.Progress = traversal.Fraction(&rec.Progress, traversal.Position{Index: a.UnitIndex, Completed: completed}, len(rec.Units))
	t.Solved = true
	t.JustCompleted = tr.JustCompleted
	t.PassFinished = tr.PassFinished
	t.AdvanceAfter = s.cfg.AdvanceAfter
	if applied {
		t.PointsAwarded = int64(a.TokenCount)
	}
	return t, nil
}

// Next skips the current unit without credit
func (s *StudyService) Next(ctx context.Context, sc StudyContext) (*Turn, error) {
	var tr traversal.Transition
	t, err := s.move(sc, func(r *models.TextRecord) error {
		n := len(r.Units)
		pos, _, err := s.planner.Resolve(&r.Progress, n)
		if err != nil {
			return err
		}
		shown := len(verse.Tokenize(r.Units[pos.Index].Text)) > 0
		tr, err = s.planner.Skip(&r.Progress, n, shown)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.PassFinished = tr.PassFinished
	return t, nil
}

// Previous goes back one unit in linear mode
func (s *StudyService) Previous(ctx context.Context, sc StudyContext) (*Turn, error) {
	return s.move(sc, func(r *models.TextRecord) error {
		return s.planner.Back(&r.Progress, len(r.Units))
	})
}

// SwitchMode changes between linear and random traversal
func (s *StudyService) SwitchMode(ctx context.Context, sc StudyContext, mode models.Mode) (*Turn, error) {
	return s.move(sc, func(r *models.TextRecord) error {
		_, err := s.planner.SwitchMode(&r.Progress, mode, len(r.Units))
		return err
	})
}

// move applies a navigation step, drops the open attempt and presents the
// unit the step lands on.
func (s *StudyService) move(sc StudyContext, step func(*models.TextRecord) error) (*Turn, error) {
	unlock := s.lockUser(sc.UserID)
	defer unlock()

	if _, err := s.progress.Update(sc.Username, sc.Language, sc.Title, step); err != nil {
		return nil, s.updateError(err)
	}
	s.attempts.Discard(sc.UserID)

	st, err := s.resolve(sc)
	if err != nil {
		return nil, err
	}
	return s.turn(sc, st), nil
}

// Abandon drops the user's open attempt, for example when another text is picked
func (s *StudyService) Abandon(userID int64) {
	s.attempts.Discard(userID)
}

func (s *StudyService) updateError(err error) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return ErrTextNotFound
	}
	if errors.Is(err, traversal.ErrAtFirstUnit) ||
		errors.Is(err, traversal.ErrBackUnsupported) ||
		errors.Is(err, traversal.ErrUnknownMode) ||
		errors.Is(err, traversal.ErrNoContent) {
		return err
	}
	return fmt.Errorf("failed to save progress: %w", err)
}
