package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
	"pressmarket/internal/repository"
	"pressmarket/internal/stream"
)

// ErrOpportunityClosed is returned when a commit loses the race against a
// close: the computed price is discarded and nothing is written.
var ErrOpportunityClosed = errors.New("opportunity is closed")

// ErrNotFound is the service-level miss for lookups by ID.
var ErrNotFound = errors.New("not found")

// PriceCommitService is the single write path for prices. Scheduled ticks,
// event-triggered recomputes and manual operator pushes all land here, so the
// row update and its audit snapshot are always atomic.
type PriceCommitService struct {
	Repo   repository.Repository
	Hub    *stream.Hub
	Logger *zap.Logger
}

// Commit re-checks the opportunity status under a row lock, applies the new
// price and appends the audit snapshot in one transaction, then fans the
// update out to stream subscribers.
func (s *PriceCommitService) Commit(ctx context.Context, opportunityID uint64, result pricing.Result, source, batchID string) (*models.PriceSnapshot, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("price commit service not configured")
	}
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, err
	}

	snapshot := &models.PriceSnapshot{
		OpportunityID: opportunityID,
		Price:         result.Price,
		Breakdown:     breakdown,
		Source:        source,
		BatchID:       batchID,
	}
	var previous models.Opportunity
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		opp, err := s.Repo.GetOpportunityForUpdateTx(ctx, tx, opportunityID)
		if err != nil {
			return err
		}
		if opp == nil || opp.Status != models.OpportunityStatusOpen {
			return ErrOpportunityClosed
		}
		previous = *opp
		if err := s.Repo.UpdateOpportunityPriceTx(ctx, tx, opportunityID, result.Price, breakdown); err != nil {
			return err
		}
		return s.Repo.InsertPriceSnapshotTx(ctx, tx, snapshot)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("price committed",
			zap.Uint64("opportunity_id", opportunityID),
			zap.String("price", result.Price.String()),
			zap.String("source", source),
			zap.String("batch_id", batchID),
		)
	}
	if s.Hub != nil {
		s.Hub.Publish(stream.PriceUpdate{
			OpportunityID: opportunityID,
			Price:         result.Price,
			Previous:      previous.CurrentPrice,
			Source:        source,
			BatchID:       batchID,
			At:            time.Now().UTC(),
		})
	}
	return snapshot, nil
}
