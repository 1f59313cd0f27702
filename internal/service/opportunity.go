package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
	"pressmarket/internal/repository"
)

// OpportunityService covers the lifecycle operations the pricing engine owns:
// creation with the tier base price, listing, and close with price freeze.
type OpportunityService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type CreateOpportunityParams struct {
	Title         string
	Tier          int
	PublicationID uint64
	Deadline      time.Time
}

type OpportunitiesResult struct {
	Items []models.Opportunity
	Total int64
}

// Create inserts a new open opportunity priced at its tier base, plus the seed
// snapshot so the trend series starts at creation.
func (s *OpportunityService) Create(ctx context.Context, params CreateOpportunityParams) (*models.Opportunity, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("opportunity service not configured")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	if !pricing.IsValidTier(params.Tier) {
		return nil, errors.New("tier must be 1, 2 or 3")
	}
	if params.PublicationID == 0 {
		return nil, errors.New("publication_id is required")
	}
	if !params.Deadline.After(time.Now().UTC()) {
		return nil, errors.New("deadline must be in the future")
	}
	if pub, err := s.Repo.GetPublicationByID(ctx, params.PublicationID); err != nil {
		return nil, err
	} else if pub == nil {
		return nil, errors.New("publication not found")
	}

	base := pricing.BasePrice(params.Tier)
	item := &models.Opportunity{
		Title:         title,
		Tier:          params.Tier,
		PublicationID: params.PublicationID,
		Status:        models.OpportunityStatusOpen,
		CurrentPrice:  base,
		Deadline:      params.Deadline.UTC(),
	}
	seed, err := json.Marshal(pricing.Breakdown{
		Signals: map[string]pricing.Contribution{},
		Final:   base.InexactFloat64(),
	})
	if err != nil {
		return nil, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.InsertOpportunityTx(ctx, tx, item); err != nil {
			return err
		}
		return s.Repo.InsertPriceSnapshotTx(ctx, tx, &models.PriceSnapshot{
			OpportunityID: item.ID,
			Price:         base,
			Breakdown:     seed,
			Source:        models.SnapshotSourceSeed,
		})
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("opportunity created",
			zap.Uint64("opportunity_id", item.ID),
			zap.Int("tier", item.Tier),
			zap.String("base_price", base.String()),
		)
	}
	return item, nil
}

func (s *OpportunityService) Get(ctx context.Context, id uint64) (*models.Opportunity, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("opportunity service not configured")
	}
	return s.Repo.GetOpportunityByID(ctx, id)
}

func (s *OpportunityService) List(ctx context.Context, params repository.ListOpportunitiesParams) (OpportunitiesResult, error) {
	if s == nil || s.Repo == nil {
		return OpportunitiesResult{}, errors.New("opportunity service not configured")
	}
	total, err := s.Repo.CountOpportunities(ctx, params)
	if err != nil {
		return OpportunitiesResult{}, err
	}
	items, err := s.Repo.ListOpportunities(ctx, params)
	if err != nil {
		return OpportunitiesResult{}, err
	}
	return OpportunitiesResult{Items: items, Total: total}, nil
}

// Close freezes the current price as last_price and excludes the opportunity
// from all further recomputation. Closing an already closed opportunity is a
// no-op returning the frozen row.
func (s *OpportunityService) Close(ctx context.Context, id uint64) (*models.Opportunity, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("opportunity service not configured")
	}
	item, err := s.Repo.CloseOpportunity(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if item != nil && s.Logger != nil {
		s.Logger.Info("opportunity closed",
			zap.Uint64("opportunity_id", item.ID),
			zap.String("last_price", item.CurrentPrice.String()),
		)
	}
	return item, nil
}
