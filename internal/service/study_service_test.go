package service

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/repository"
	"verselearn/internal/traversal"
	"verselearn/internal/verse"
)

type studyFixture struct {
	svc      *StudyService
	stats    *fakeStats
	progress *repository.ProgressRepository
	dataDir  string
	sc       StudyContext
}

func newStudyFixture(t *testing.T, maxFragments int, units ...models.Unit) *studyFixture {
	t.Helper()

	dataDir := t.TempDir()
	progress := repository.NewProgressRepository(dataDir, zap.NewNop())
	stats := &fakeStats{}
	svc := NewStudyService(
		progress,
		traversal.New(rand.New(rand.NewSource(7))),
		NewLedger(stats, zap.NewNop()),
		NewAttemptStore(),
		StudyConfig{MaxFragments: maxFragments, AdvanceAfter: 2 * time.Second},
		zap.NewNop(),
	)
	svc.rng = rand.New(rand.NewSource(11))

	sc := StudyContext{UserID: 1, Username: "anna", Language: models.LanguageDE, Title: "Lernvers"}
	require.NoError(t, progress.Insert(sc.Username, sc.Language, sc.Title, models.NewTextRecord(sc.Language, units)))
	return &studyFixture{svc: svc, stats: stats, progress: progress, dataDir: dataDir, sc: sc}
}

// pick returns the display index of the first unused fragment with text
func pick(t *testing.T, turn *Turn, text string) int {
	t.Helper()
	for _, f := range turn.Fragments {
		if !f.Used && f.Text == text {
			return f.Index
		}
	}
	t.Fatalf("fragment %q not offered in %+v", text, turn.Fragments)
	return -1
}

// solve reassembles the current unit in the correct order
func (f *studyFixture) solve(t *testing.T, text string) *Turn {
	t.Helper()
	ctx := context.Background()

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	for _, frag := range verse.Chunk(verse.Tokenize(text), f.svc.cfg.MaxFragments) {
		turn, err = f.svc.Choose(ctx, f.sc, pick(t, turn, frag))
		require.NoError(t, err)
	}
	return turn
}

func (f *studyFixture) record(t *testing.T) *models.TextRecord {
	t.Helper()
	rec, err := f.progress.Get(f.sc.Username, f.sc.Language, f.sc.Title)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestStudyScenarioLinearCompletion(t *testing.T) {
	texts := []string{
		"Im Anfang war das Wort",
		"Gott ist Liebe",
		"Denn also hat Gott die Welt geliebt dass",
	}
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "Joh 1:1", Text: texts[0]},
		models.Unit{Ref: "1Joh 4:16", Text: texts[1]},
		models.Unit{Ref: "Joh 3:16", Text: texts[2]},
	)

	var points []int64
	for i, text := range texts {
		turn := f.solve(t, text)
		require.True(t, turn.Solved, "unit %d not solved", i)
		require.NotNil(t, turn.Feedback)
		assert.True(t, turn.Feedback.Correct)
		assert.Equal(t, 2*time.Second, turn.AdvanceAfter)
		assert.Equal(t, i == len(texts)-1, turn.JustCompleted, "unit %d", i)
		points = append(points, turn.PointsAwarded)
	}

	assert.Equal(t, []int64{5, 3, 8}, points)
	assert.Equal(t, int64(16), f.stats.totals.Points)
	assert.Equal(t, int64(3), f.stats.totals.Verses)
	assert.Equal(t, int64(16), f.stats.totals.Words)

	rec := f.record(t)
	assert.True(t, rec.Progress.CompletedLinear)
	assert.Equal(t, 0, rec.Progress.LastIndex)

	turn, err := f.svc.Current(context.Background(), f.sc)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.UnitIndex)
	assert.True(t, turn.Completed)
	assert.InDelta(t, 1.0, turn.Progress, 1e-9)

	// a second round never reports completion again
	for _, text := range texts {
		assert.False(t, f.solve(t, text).JustCompleted)
	}
	assert.Equal(t, int64(32), f.stats.totals.Points)
	assert.Zero(t, f.svc.locks.Len(), "user locks must be released")
}

func TestStudyIncorrectSelection(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"},
		models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"},
	)
	ctx := context.Background()

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, turn.Fragments, 3)

	for _, frag := range []string{"Liebe", "ist", "Gott"} {
		turn, err = f.svc.Choose(ctx, f.sc, pick(t, turn, frag))
		require.NoError(t, err)
	}
	require.NotNil(t, turn.Feedback)
	assert.False(t, turn.Feedback.Correct)
	assert.False(t, turn.Solved)
	assert.Equal(t, "Gott ist Liebe", turn.Feedback.CorrectText)

	hasError := false
	for _, seg := range turn.Feedback.Segments {
		hasError = hasError || seg.Error
	}
	assert.True(t, hasError, "wrong order must mark at least one segment")
	assert.Zero(t, f.stats.calls)

	_, err = f.svc.Choose(ctx, f.sc, 0)
	assert.ErrorIs(t, err, models.ErrSelectionComplete)

	turn, err = f.svc.Undo(ctx, f.sc)
	require.NoError(t, err)
	assert.Nil(t, turn.Feedback)
	assert.Len(t, turn.Selection, 2)
	assert.Equal(t, 0, f.record(t).Progress.LastIndex, "incorrect attempt must not advance")
}

func TestStudyChooseErrors(t *testing.T) {
	f := newStudyFixture(t, 8, models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"})
	ctx := context.Background()

	_, err := f.svc.Choose(ctx, f.sc, 99)
	assert.ErrorIs(t, err, models.ErrFragmentOutOfRange)

	_, err = f.svc.Choose(ctx, f.sc, 0)
	require.NoError(t, err)
	_, err = f.svc.Choose(ctx, f.sc, 0)
	assert.ErrorIs(t, err, models.ErrFragmentUsed)
}

func TestStudySettlementFailureIsRetried(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"},
		models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"},
	)
	ctx := context.Background()
	f.stats.failErr = errors.New("disk full")

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	for i, frag := range []string{"Gott", "ist", "Liebe"} {
		turn2, err := f.svc.Choose(ctx, f.sc, pick(t, turn, frag))
		if i < 2 {
			require.NoError(t, err)
			turn = turn2
			continue
		}
		assert.ErrorIs(t, err, ErrSettlementNotPersisted)
	}
	assert.Equal(t, 0, f.record(t).Progress.LastIndex, "no advance without credit")
	assert.Zero(t, f.stats.totals.Points)

	f.stats.failErr = nil
	turn, err = f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.True(t, turn.Solved)
	assert.Equal(t, int64(3), turn.PointsAwarded)

	turn, err = f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.UnitIndex)
	assert.False(t, turn.Solved)
	assert.Equal(t, int64(3), f.stats.totals.Points)
}

func TestStudyProgressWriteFailureDoesNotCreditTwice(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"},
		models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"},
	)
	ctx := context.Background()

	matches, err := filepath.Glob(filepath.Join(f.dataDir, "users", "*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	partition := matches[0]
	held := partition + ".held"

	// once points are credited, put a directory where the partition was so
	// the progress update fails
	f.stats.afterApply = func() {
		require.NoError(t, os.Rename(partition, held))
		require.NoError(t, os.Mkdir(partition, 0755))
	}

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	for _, frag := range []string{"Gott", "ist"} {
		turn, err = f.svc.Choose(ctx, f.sc, pick(t, turn, frag))
		require.NoError(t, err)
	}
	_, err = f.svc.Choose(ctx, f.sc, pick(t, turn, "Liebe"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSettlementNotPersisted)
	assert.Equal(t, int64(3), f.stats.totals.Points)

	f.stats.afterApply = nil
	require.NoError(t, os.Remove(partition))
	require.NoError(t, os.Rename(held, partition))
	assert.Equal(t, 0, f.record(t).Progress.LastIndex)

	turn, err = f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.True(t, turn.Solved)
	assert.Zero(t, turn.PointsAwarded, "points were already credited")

	assert.Equal(t, 1, f.stats.calls)
	assert.Equal(t, int64(3), f.stats.totals.Points)
	assert.Equal(t, 1, f.record(t).Progress.LastIndex)

	turn, err = f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.UnitIndex)
	assert.False(t, turn.Solved)
}

func TestStudyRandomSolveIsNeverCompleted(t *testing.T) {
	f := newStudyFixture(t, 8, models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"})
	ctx := context.Background()

	turn := f.solve(t, "Gott ist Liebe")
	require.True(t, turn.JustCompleted)
	assert.True(t, turn.Completed)

	_, err := f.svc.SwitchMode(ctx, f.sc, models.ModeRandom)
	require.NoError(t, err)

	current, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.False(t, current.Completed)

	turn = f.solve(t, "Gott ist Liebe")
	require.True(t, turn.Solved)
	assert.Equal(t, models.ModeRandom, turn.Mode)
	assert.False(t, turn.Completed, "random mode has no completed state")
	assert.True(t, f.record(t).Progress.CompletedLinear, "linear completion is kept")
}

func TestStudyEmptyUnitIsSkippable(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "Ps 0:0", Text: ""},
		models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"},
	)
	ctx := context.Background()

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	assert.True(t, turn.EmptyUnit)
	assert.Empty(t, turn.Fragments)

	turn, err = f.svc.Choose(ctx, f.sc, 0)
	require.NoError(t, err)
	assert.True(t, turn.EmptyUnit)

	turn, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.UnitIndex)
	assert.False(t, turn.EmptyUnit)
	assert.Zero(t, f.stats.calls, "skipping never settles")
}

func TestStudyNavigation(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"},
		models.Unit{Ref: "Ps 23:2", Text: "Er weidet mich auf einer grünen Aue"},
		models.Unit{Ref: "Ps 23:3", Text: "Er erquicket meine Seele"},
	)
	ctx := context.Background()

	_, err := f.svc.Previous(ctx, f.sc)
	assert.ErrorIs(t, err, traversal.ErrAtFirstUnit)

	turn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	_, err = f.svc.Choose(ctx, f.sc, turn.Fragments[0].Index)
	require.NoError(t, err)

	turn, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.UnitIndex)
	assert.Empty(t, turn.Selection)

	turn, err = f.svc.Previous(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.UnitIndex)
	assert.Empty(t, turn.Selection, "partial selection must be discarded")

	_, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	turn, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.UnitIndex, "linear skip wraps around")
	assert.False(t, f.record(t).Progress.CompletedLinear, "skipping never completes a text")
}

func TestStudyRandomMode(t *testing.T) {
	f := newStudyFixture(t, 8,
		models.Unit{Ref: "Ps 0:0", Text: ""},
		models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"},
	)
	ctx := context.Background()

	turn, err := f.svc.SwitchMode(ctx, f.sc, models.ModeRandom)
	require.NoError(t, err)
	assert.Equal(t, models.ModeRandom, turn.Mode)
	firstEmpty := turn.EmptyUnit

	rec := f.record(t)
	assert.Len(t, rec.Progress.RandomPass.Order, 2)

	_, err = f.svc.Previous(ctx, f.sc)
	assert.ErrorIs(t, err, traversal.ErrBackUnsupported)

	_, err = f.svc.Next(ctx, f.sc)
	require.NoError(t, err)
	rec = f.record(t)
	if firstEmpty {
		assert.Equal(t, 0, rec.Progress.RandomPass.ShownCount, "empty unit must not count as shown")
	} else {
		assert.Equal(t, 1, rec.Progress.RandomPass.ShownCount)
	}
	assert.Equal(t, 1, rec.Progress.RandomPass.Cursor)

	_, err = f.svc.SwitchMode(ctx, f.sc, models.Mode("spiral"))
	assert.ErrorIs(t, err, traversal.ErrUnknownMode)

	turn, err = f.svc.SwitchMode(ctx, f.sc, models.ModeLinear)
	require.NoError(t, err)
	assert.Equal(t, models.ModeLinear, turn.Mode)
	assert.Empty(t, f.record(t).Progress.RandomPass.Order)
}

func TestStudyUnknownText(t *testing.T) {
	f := newStudyFixture(t, 8, models.Unit{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"})
	ctx := context.Background()
	sc := f.sc
	sc.Title = "Fehlt"

	_, err := f.svc.Current(ctx, sc)
	assert.ErrorIs(t, err, ErrTextNotFound)
	_, err = f.svc.Next(ctx, sc)
	assert.ErrorIs(t, err, ErrTextNotFound)
}

func TestStudyUsersAreIsolated(t *testing.T) {
	f := newStudyFixture(t, 8, models.Unit{Ref: "1Joh 4:16", Text: "Gott ist Liebe"})
	ctx := context.Background()

	ben := StudyContext{UserID: 2, Username: "ben", Language: f.sc.Language, Title: f.sc.Title}
	require.NoError(t, f.progress.Insert(ben.Username, ben.Language, ben.Title,
		models.NewTextRecord(ben.Language, []models.Unit{{Ref: "1Joh 4:16", Text: "Gott ist Liebe"}})))

	annaTurn, err := f.svc.Current(ctx, f.sc)
	require.NoError(t, err)
	_, err = f.svc.Choose(ctx, f.sc, pick(t, annaTurn, "Gott"))
	require.NoError(t, err)

	benTurn, err := f.svc.Current(ctx, ben)
	require.NoError(t, err)
	assert.Empty(t, benTurn.Selection)
}
