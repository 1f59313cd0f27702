package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pressmarket/internal/repository"
)

// AutoCloseService sweeps open opportunities whose deadline has passed and
// closes them, freezing their prices. It runs from the cron runner.
type AutoCloseService struct {
	Repo      repository.Repository
	Logger    *zap.Logger
	BatchSize int
}

func (s *AutoCloseService) batchSize() int {
	if s == nil || s.BatchSize <= 0 {
		return 200
	}
	return s.BatchSize
}

// SweepOnce closes every open opportunity past its deadline, up to the batch
// size, and returns the number closed.
func (s *AutoCloseService) SweepOnce(ctx context.Context) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, errors.New("auto close service not configured")
	}
	now := time.Now().UTC()
	items, err := s.Repo.ListOpenPastDeadline(ctx, now, s.batchSize())
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		if _, err := s.Repo.CloseOpportunity(ctx, item.ID, now); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("deadline close failed",
					zap.Uint64("opportunity_id", item.ID),
					zap.Error(err),
				)
			}
			continue
		}
		closed++
	}
	if closed > 0 && s.Logger != nil {
		s.Logger.Info("deadline sweep closed opportunities", zap.Int("closed", closed))
	}
	return closed, nil
}
