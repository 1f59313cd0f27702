package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
	"pressmarket/internal/service"
	"pressmarket/internal/tuning"
)

type stubEngineRepo struct {
	open   []models.Opportunity
	byID   map[uint64]*models.Opportunity
	latest map[uint64]*models.PriceSnapshot

	variables []models.PricingVariable
	configs   []models.PricingConfig
	mark      time.Time
}

func (s *stubEngineRepo) ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	return s.open, nil
}

func (s *stubEngineRepo) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	return s.byID[id], nil
}

func (s *stubEngineRepo) GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error) {
	return s.latest[opportunityID], nil
}

func (s *stubEngineRepo) ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error) {
	return s.variables, nil
}

func (s *stubEngineRepo) ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error) {
	return s.configs, nil
}

func (s *stubEngineRepo) MaxTuningUpdatedAt(ctx context.Context) (time.Time, error) {
	return s.mark, nil
}

type stubCollector struct {
	signals map[string]float64
	err     error
	panics  map[uint64]bool
}

func (s *stubCollector) Collect(ctx context.Context, opp models.Opportunity, now time.Time) (map[string]float64, error) {
	if s.panics != nil && s.panics[opp.ID] {
		panic("collector blew up")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.signals != nil {
		return s.signals, nil
	}
	return map[string]float64{}, nil
}

type commitCall struct {
	opportunityID uint64
	source        string
	batchID       string
}

type stubCommitter struct {
	mu    sync.Mutex
	calls []commitCall
	err   error
}

func (s *stubCommitter) Commit(ctx context.Context, opportunityID uint64, result pricing.Result, source, batchID string) (*models.PriceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, commitCall{opportunityID: opportunityID, source: source, batchID: batchID})
	return &models.PriceSnapshot{OpportunityID: opportunityID, Price: result.Price, Source: source}, nil
}

func (s *stubCommitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func openOpportunity(id uint64) models.Opportunity {
	now := time.Now().UTC()
	return models.Opportunity{
		ID:            id,
		Tier:          pricing.TierStandard,
		PublicationID: 1,
		Status:        models.OpportunityStatusOpen,
		CurrentPrice:  decimal.NewFromInt(100),
		Deadline:      now.Add(48 * time.Hour),
		CreatedAt:     now.Add(-24 * time.Hour),
	}
}

func newTestEngine(repo *stubEngineRepo, committer *stubCommitter, collector *stubCollector) *Engine {
	repo.mark = time.Now().UTC()
	cache := &tuning.Cache{Repo: repo}
	return New(repo, collector, committer, cache, nil, 4)
}

func TestRunCycle_CommitsEveryOpenOpportunityWithOneBatch(t *testing.T) {
	repo := &stubEngineRepo{
		open: []models.Opportunity{openOpportunity(1), openOpportunity(2), openOpportunity(3)},
	}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	snap, err := eng.Tuning.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	eng.runCycle(context.Background(), snap)

	if committer.callCount() != 3 {
		t.Fatalf("commits=%d want 3", committer.callCount())
	}
	batch := committer.calls[0].batchID
	for _, call := range committer.calls {
		if call.batchID != batch {
			t.Fatalf("batch ids differ within one cycle: %s vs %s", call.batchID, batch)
		}
		if call.source != models.SnapshotSourceTick {
			t.Fatalf("source=%s want tick", call.source)
		}
	}
}

func TestRunCycle_PanicInOneOpportunityDoesNotStopOthers(t *testing.T) {
	repo := &stubEngineRepo{
		open: []models.Opportunity{openOpportunity(1), openOpportunity(2), openOpportunity(3)},
	}
	committer := &stubCommitter{}
	collector := &stubCollector{panics: map[uint64]bool{2: true}}
	eng := newTestEngine(repo, committer, collector)

	snap, _ := eng.Tuning.Refresh(context.Background())
	eng.runCycle(context.Background(), snap)

	if committer.callCount() != 2 {
		t.Fatalf("commits=%d want 2 (panicking opportunity skipped)", committer.callCount())
	}
}

func TestRunCycle_SkipsInFlightOpportunity(t *testing.T) {
	repo := &stubEngineRepo{open: []models.Opportunity{openOpportunity(1)}}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	if !eng.acquire(1) {
		t.Fatalf("acquire failed")
	}
	snap, _ := eng.Tuning.Refresh(context.Background())
	eng.runCycle(context.Background(), snap)
	if committer.callCount() != 0 {
		t.Fatalf("commits=%d want 0 while in flight", committer.callCount())
	}
	eng.release(1)

	eng.runCycle(context.Background(), snap)
	if committer.callCount() != 1 {
		t.Fatalf("commits=%d want 1 after release", committer.callCount())
	}
}

func TestTriggerRecompute_CooldownCoalesces(t *testing.T) {
	opp := openOpportunity(5)
	repo := &stubEngineRepo{byID: map[uint64]*models.Opportunity{5: &opp}}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	ran, err := eng.TriggerRecompute(context.Background(), 5)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !ran {
		t.Fatalf("first trigger should run")
	}
	ran, err = eng.TriggerRecompute(context.Background(), 5)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if ran {
		t.Fatalf("second trigger inside cooldown should coalesce")
	}
	if committer.callCount() != 1 {
		t.Fatalf("commits=%d want 1", committer.callCount())
	}
	if committer.calls[0].source != models.SnapshotSourceEvent {
		t.Fatalf("source=%s want event", committer.calls[0].source)
	}
}

func TestTriggerRecompute_CooldownSeededFromLatestEventSnapshot(t *testing.T) {
	opp := openOpportunity(6)
	repo := &stubEngineRepo{
		byID: map[uint64]*models.Opportunity{6: &opp},
		latest: map[uint64]*models.PriceSnapshot{
			6: {
				OpportunityID: 6,
				Source:        models.SnapshotSourceEvent,
				CreatedAt:     time.Now().UTC().Add(-time.Minute),
			},
		},
	}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	ran, err := eng.TriggerRecompute(context.Background(), 6)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if ran {
		t.Fatalf("persisted event snapshot a minute ago should hold the cooldown")
	}
}

func TestTriggerRecompute_ClosedOpportunityIsSilentNoop(t *testing.T) {
	opp := openOpportunity(9)
	opp.Status = models.OpportunityStatusClosed
	repo := &stubEngineRepo{byID: map[uint64]*models.Opportunity{9: &opp}}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	ran, err := eng.TriggerRecompute(context.Background(), 9)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if ran {
		t.Fatalf("closed opportunity must not recompute")
	}
}

func TestRecompute_CloseRaceLossIsSilent(t *testing.T) {
	repo := &stubEngineRepo{open: []models.Opportunity{openOpportunity(1)}}
	committer := &stubCommitter{err: service.ErrOpportunityClosed}
	eng := newTestEngine(repo, committer, &stubCollector{})

	snap, _ := eng.Tuning.Refresh(context.Background())
	// Must not panic or log-fatal; the computed price is simply discarded.
	eng.runCycle(context.Background(), snap)
}

func TestManualSet_Validation(t *testing.T) {
	opp := openOpportunity(3)
	closed := openOpportunity(4)
	closed.Status = models.OpportunityStatusClosed
	repo := &stubEngineRepo{byID: map[uint64]*models.Opportunity{3: &opp, 4: &closed}}
	committer := &stubCommitter{}
	eng := newTestEngine(repo, committer, &stubCollector{})

	if _, _, err := eng.ManualSet(context.Background(), 3, -5, nil); err == nil {
		t.Fatalf("negative price should be rejected")
	}
	if _, _, err := eng.ManualSet(context.Background(), 99, 100, nil); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown id err=%v want ErrNotFound", err)
	}
	if _, _, err := eng.ManualSet(context.Background(), 4, 100, nil); !errors.Is(err, service.ErrOpportunityClosed) {
		t.Fatalf("closed err=%v want ErrOpportunityClosed", err)
	}

	snapshot, result, err := eng.ManualSet(context.Background(), 3, 200.5, nil)
	if err != nil {
		t.Fatalf("manual set: %v", err)
	}
	if snapshot.Source != models.SnapshotSourceManual {
		t.Fatalf("source=%s want manual", snapshot.Source)
	}
	if result.Breakdown.Final != 200 {
		t.Fatalf("final=%v want 200 (quantized at the ceiling)", result.Breakdown.Final)
	}
}
