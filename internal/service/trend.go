package service

import (
	"context"
	"errors"
	"time"

	"pressmarket/internal/models"
	"pressmarket/internal/repository"
)

// TrendService reads the audit trail back out as a price time series.
type TrendService struct {
	Repo repository.Repository
}

type TrendPoint struct {
	Price     string    `json:"price"`
	Source    string    `json:"source"`
	BatchID   string    `json:"batch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type TrendResult struct {
	OpportunityID uint64       `json:"opportunity_id"`
	Window        string       `json:"window"`
	Points        []TrendPoint `json:"points"`
}

// Window returns the snapshot series for one opportunity over the trailing
// window, oldest first. The series always includes the seed snapshot when the
// window reaches back to creation.
func (s *TrendService) Window(ctx context.Context, opportunityID uint64, window time.Duration, label string) (TrendResult, error) {
	if s == nil || s.Repo == nil {
		return TrendResult{}, errors.New("trend service not configured")
	}
	opp, err := s.Repo.GetOpportunityByID(ctx, opportunityID)
	if err != nil {
		return TrendResult{}, err
	}
	if opp == nil {
		return TrendResult{}, ErrNotFound
	}
	since := time.Now().UTC().Add(-window)
	items, err := s.Repo.ListPriceSnapshots(ctx, repository.ListPriceSnapshotsParams{
		OpportunityID: opportunityID,
		Since:         &since,
		Asc:           true,
	})
	if err != nil {
		return TrendResult{}, err
	}
	points := make([]TrendPoint, 0, len(items))
	for _, item := range items {
		points = append(points, TrendPoint{
			Price:     item.Price.StringFixed(2),
			Source:    item.Source,
			BatchID:   item.BatchID,
			CreatedAt: item.CreatedAt,
		})
	}
	return TrendResult{OpportunityID: opportunityID, Window: label, Points: points}, nil
}

// Latest returns the most recent snapshot, used to expose the current price
// explanation.
func (s *TrendService) Latest(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("trend service not configured")
	}
	return s.Repo.GetLatestPriceSnapshot(ctx, opportunityID)
}
