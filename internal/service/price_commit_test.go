package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
	"pressmarket/internal/stream"
)

func testResult(price int64) pricing.Result {
	return pricing.Result{
		Price: decimal.NewFromInt(price),
		Breakdown: pricing.Breakdown{
			Signals: map[string]pricing.Contribution{},
			Floor:   50,
			Ceiling: 200,
			Step:    5,
			Final:   float64(price),
		},
	}
}

func TestCommit_WritesPriceAndSnapshotAtomically(t *testing.T) {
	opp := &models.Opportunity{
		ID:           1,
		Status:       models.OpportunityStatusOpen,
		CurrentPrice: decimal.NewFromInt(100),
	}
	var updatedPrice decimal.Decimal
	repo := &stubRepo{
		getOpportunityForUpdateTx: func(id uint64) (*models.Opportunity, error) {
			return opp, nil
		},
		updateOpportunityPriceTx: func(id uint64, price decimal.Decimal, breakdown datatypes.JSON) error {
			updatedPrice = price
			return nil
		},
	}
	svc := &PriceCommitService{Repo: repo}

	snapshot, err := svc.Commit(context.Background(), 1, testResult(110), models.SnapshotSourceTick, "batch-1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !updatedPrice.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("updated price=%s want 110", updatedPrice)
	}
	if len(repo.insertedSnapshots) != 1 {
		t.Fatalf("snapshots=%d want 1", len(repo.insertedSnapshots))
	}
	if snapshot.Source != models.SnapshotSourceTick || snapshot.BatchID != "batch-1" {
		t.Fatalf("snapshot=%+v", snapshot)
	}
	var breakdown pricing.Breakdown
	if err := json.Unmarshal(snapshot.Breakdown, &breakdown); err != nil {
		t.Fatalf("breakdown not valid json: %v", err)
	}
	if breakdown.Final != 110 {
		t.Fatalf("breakdown final=%v want 110", breakdown.Final)
	}
}

func TestCommit_ClosedOpportunityRejectedWithoutWrites(t *testing.T) {
	now := time.Now().UTC()
	opp := &models.Opportunity{
		ID:       2,
		Status:   models.OpportunityStatusClosed,
		ClosedAt: &now,
	}
	updated := false
	repo := &stubRepo{
		getOpportunityForUpdateTx: func(id uint64) (*models.Opportunity, error) {
			return opp, nil
		},
		updateOpportunityPriceTx: func(id uint64, price decimal.Decimal, breakdown datatypes.JSON) error {
			updated = true
			return nil
		},
	}
	svc := &PriceCommitService{Repo: repo}

	_, err := svc.Commit(context.Background(), 2, testResult(110), models.SnapshotSourceTick, "batch-2")
	if !errors.Is(err, ErrOpportunityClosed) {
		t.Fatalf("err=%v want ErrOpportunityClosed", err)
	}
	if updated || len(repo.insertedSnapshots) != 0 {
		t.Fatalf("closed opportunity must not be written")
	}
}

func TestCommit_PublishesToStream(t *testing.T) {
	opp := &models.Opportunity{
		ID:           3,
		Status:       models.OpportunityStatusOpen,
		CurrentPrice: decimal.NewFromInt(100),
	}
	repo := &stubRepo{
		getOpportunityForUpdateTx: func(id uint64) (*models.Opportunity, error) {
			return opp, nil
		},
	}
	hub := stream.NewHub(nil)
	updates, cancel := hub.Subscribe()
	defer cancel()
	svc := &PriceCommitService{Repo: repo, Hub: hub}

	if _, err := svc.Commit(context.Background(), 3, testResult(115), models.SnapshotSourceEvent, ""); err != nil {
		t.Fatalf("commit: %v", err)
	}
	select {
	case update := <-updates:
		if update.OpportunityID != 3 {
			t.Fatalf("update=%+v", update)
		}
		if !update.Price.Equal(decimal.NewFromInt(115)) {
			t.Fatalf("price=%s want 115", update.Price)
		}
		if !update.Previous.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("previous=%s want 100", update.Previous)
		}
	default:
		t.Fatalf("no update published")
	}
}
