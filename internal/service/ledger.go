package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/models"
)

// ErrSettlementNotPersisted means the points of a solved unit could not be
// stored. The attempt stays unsettled and may be settled again.
var ErrSettlementNotPersisted = errors.New("points could not be saved")

// StatsRecorder persists a settlement in one atomic write
type StatsRecorder interface {
	ApplySettlement(ctx context.Context, userID int64, s models.Settlement) error
}

// Ledger credits points for solved attempts, at most once per attempt
type Ledger struct {
	stats  StatsRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger creates a ledger writing through stats
func NewLedger(stats StatsRecorder, logger *zap.Logger) *Ledger {
	return &Ledger{stats: stats, logger: logger, now: time.Now}
}

// Settle credits the attempt's token count as points together with the time
// spent. It returns false without writing if the attempt was settled before.
func (l *Ledger) Settle(ctx context.Context, userID int64, attempt *models.Attempt) (bool, error) {
	if attempt.PointsApplied {
		return false, nil
	}

	s := models.Settlement{
		Points:  int64(attempt.TokenCount),
		Seconds: attempt.Elapsed(l.now()),
		Verses:  1,
		Words:   int64(attempt.TokenCount),
	}
	if err := l.stats.ApplySettlement(ctx, userID, s); err != nil {
		l.logger.Error("settlement failed",
			zap.Int64("user_id", userID),
			zap.Int64("points", s.Points),
			zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrSettlementNotPersisted, err)
	}

	attempt.PointsApplied = true
	l.logger.Debug("settled attempt",
		zap.Int64("user_id", userID),
		zap.Int64("points", s.Points),
		zap.Int64("seconds", s.Seconds))
	return true, nil
}
