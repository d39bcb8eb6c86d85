// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Intervals for the housekeeping jobs
const (
	SessionPurgeInterval  = time.Hour
	AttemptSweepInterval  = 10 * time.Minute
	LimiterCleanInterval  = 5 * time.Minute
	DefaultAttemptMaxIdle = 2 * time.Hour
)

// SessionPurger deletes expired login sessions
type SessionPurger interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// AttemptSweeper drops attempts nobody touched for a while
type AttemptSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// VisitorCleaner forgets idle rate limiter entries
type VisitorCleaner interface {
	Cleanup() int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionPurger
	attempts  AttemptSweeper
	limiters  []VisitorCleaner
	maxIdle   time.Duration
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(sessions SessionPurger, attempts AttemptSweeper, logger *zap.Logger, limiters ...VisitorCleaner) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		attempts:  attempts,
		limiters:  limiters,
		maxIdle:   DefaultAttemptMaxIdle,
		logger:    logger,
	}
}

// Start registers all jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(SessionPurgeInterval).Do(s.purgeSessions); err != nil {
		return fmt.Errorf("failed to schedule session purge: %w", err)
	}
	if _, err := s.scheduler.Every(AttemptSweepInterval).Do(s.sweepAttempts); err != nil {
		return fmt.Errorf("failed to schedule attempt sweep: %w", err)
	}
	if _, err := s.scheduler.Every(LimiterCleanInterval).Do(s.cleanLimiters); err != nil {
		return fmt.Errorf("failed to schedule limiter cleanup: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Int("jobs", s.scheduler.Len()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("session purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", zap.Int64("count", n))
	}
}

func (s *Scheduler) sweepAttempts() {
	if n := s.attempts.Sweep(s.maxIdle); n > 0 {
		s.logger.Debug("dropped idle attempts", zap.Int("count", n))
	}
}

func (s *Scheduler) cleanLimiters() {
	removed := 0
	for _, l := range s.limiters {
		removed += l.Cleanup()
	}
	if removed > 0 {
		s.logger.Debug("forgot idle visitors", zap.Int("count", removed))
	}
}
