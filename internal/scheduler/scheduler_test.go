package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	n   int64
	err error
}

func (f *fakePurger) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return f.n, f.err
}

type fakeSweeper struct{ maxIdle time.Duration }

func (f *fakeSweeper) Sweep(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return 1
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) Cleanup() int {
	f.calls++
	return 2
}

func TestJobs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	purger := &fakePurger{n: 3}
	sweeper := &fakeSweeper{}
	auth, api := &fakeCleaner{}, &fakeCleaner{}

	s := New(purger, sweeper, zap.New(core), auth, api)

	s.purgeSessions()
	if logs.FilterMessage("purged expired sessions").Len() != 1 {
		t.Error("expected purge to be logged")
	}

	purger.err = errors.New("database is locked")
	s.purgeSessions()
	if logs.FilterMessage("session purge failed").Len() != 1 {
		t.Error("expected purge failure to be logged")
	}

	s.sweepAttempts()
	if sweeper.maxIdle != DefaultAttemptMaxIdle {
		t.Errorf("Sweep() maxIdle = %v, want %v", sweeper.maxIdle, DefaultAttemptMaxIdle)
	}

	s.cleanLimiters()
	if auth.calls != 1 || api.calls != 1 {
		t.Errorf("limiter cleanups = %d/%d, want 1/1", auth.calls, api.calls)
	}
}

func TestStartStop(t *testing.T) {
	s := New(&fakePurger{}, &fakeSweeper{}, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if got := s.scheduler.Len(); got != 3 {
		t.Errorf("scheduled jobs = %d, want 3", got)
	}
}
