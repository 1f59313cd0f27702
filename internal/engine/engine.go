package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
	"pressmarket/internal/service"
	"pressmarket/internal/tuning"
)

const (
	defaultTickInterval = time.Minute
	defaultWorkers      = 8
)

type engineRepo interface {
	ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error)
	GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error)
	GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error)
}

type signalCollector interface {
	Collect(ctx context.Context, opp models.Opportunity, now time.Time) (map[string]float64, error)
}

type priceCommitter interface {
	Commit(ctx context.Context, opportunityID uint64, result pricing.Result, source, batchID string) (*models.PriceSnapshot, error)
}

// Engine drives the recompute cycle: every tick it refreshes the tuning
// snapshot, walks the open opportunities and recomputes each one on a bounded
// worker pool. Event-triggered recomputes share the same per-opportunity
// in-flight guard, so no two recomputations for one opportunity ever overlap.
type Engine struct {
	Repo      engineRepo
	Collector signalCollector
	Committer priceCommitter
	Tuning    *tuning.Cache
	Logger    *zap.Logger
	Workers   int

	mu        sync.Mutex
	inflight  map[uint64]struct{}
	lastEvent map[uint64]time.Time
}

func New(repo engineRepo, collector signalCollector, committer priceCommitter, cache *tuning.Cache, logger *zap.Logger, workers int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Engine{
		Repo:      repo,
		Collector: collector,
		Committer: committer,
		Tuning:    cache,
		Logger:    logger,
		Workers:   workers,
		inflight:  make(map[uint64]struct{}),
		lastEvent: make(map[uint64]time.Time),
	}
}

// Run executes recompute cycles until the context is cancelled. The interval
// is re-read from the tuning snapshot each cycle, so retuning
// tick_interval_seconds takes effect on the next sleep without a restart.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil || e.Repo == nil {
		return errors.New("engine not configured")
	}
	for {
		interval := defaultTickInterval
		snap, err := e.Tuning.Refresh(ctx)
		if err != nil && e.Logger != nil {
			e.Logger.Warn("tuning refresh failed, using cached snapshot", zap.Error(err))
		}
		if snap != nil {
			if snap.Config.TickInterval > 0 {
				interval = snap.Config.TickInterval
			}
			e.runCycle(ctx, snap)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Engine) runCycle(ctx context.Context, snap *tuning.Snapshot) {
	started := time.Now()
	opps, err := e.Repo.ListOpenOpportunities(ctx)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warn("open opportunity scan failed", zap.Error(err))
		}
		return
	}
	if len(opps) == 0 {
		return
	}

	batchID := uuid.NewString()
	sem := make(chan struct{}, e.Workers)
	var wg sync.WaitGroup
	recomputed := 0
	var countMu sync.Mutex

	for _, opp := range opps {
		if ctx.Err() != nil {
			break
		}
		if !e.acquire(opp.ID) {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(opp models.Opportunity) {
			defer wg.Done()
			defer func() { <-sem }()
			defer e.release(opp.ID)
			if err := e.recompute(ctx, opp, snap, models.SnapshotSourceTick, batchID); err != nil {
				if errors.Is(err, service.ErrOpportunityClosed) {
					return
				}
				if e.Logger != nil {
					e.Logger.Warn("recompute failed",
						zap.Uint64("opportunity_id", opp.ID),
						zap.String("batch_id", batchID),
						zap.Error(err),
					)
				}
				return
			}
			countMu.Lock()
			recomputed++
			countMu.Unlock()
		}(opp)
	}
	wg.Wait()

	if e.Logger != nil {
		e.Logger.Info("recompute cycle finished",
			zap.String("batch_id", batchID),
			zap.Int("open", len(opps)),
			zap.Int("recomputed", recomputed),
			zap.Duration("took", time.Since(started)),
		)
	}
}

// recompute collects, computes and commits one opportunity. A panic in any
// stage is contained here so one bad opportunity cannot take down the cycle.
func (e *Engine) recompute(ctx context.Context, opp models.Opportunity, snap *tuning.Snapshot, source, batchID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recompute panic: %v", r)
		}
	}()

	signals, err := e.Collector.Collect(ctx, opp, time.Now().UTC())
	if err != nil {
		return err
	}
	result := pricing.Compute(pricing.Inputs{
		CurrentPrice: opp.CurrentPrice,
		Tier:         opp.Tier,
		Signals:      signals,
		Variables:    snap.Variables,
		Config:       snap.Config,
	})
	_, err = e.Committer.Commit(ctx, opp.ID, result, source, batchID)
	return err
}

// TriggerRecompute runs an immediate out-of-band recompute for one
// opportunity, typically after an engagement event. Triggers inside the
// cooldown window coalesce into a no-op; the regular tick still covers the
// opportunity. Returns true when a recompute actually ran.
func (e *Engine) TriggerRecompute(ctx context.Context, opportunityID uint64) (bool, error) {
	if e == nil || e.Repo == nil {
		return false, errors.New("engine not configured")
	}
	snap, err := e.Tuning.Refresh(ctx)
	if err != nil && snap == nil {
		return false, err
	}
	if snap == nil {
		return false, errors.New("tuning snapshot unavailable")
	}

	now := time.Now().UTC()
	if !e.passCooldown(ctx, opportunityID, snap.Config.Cooldown, now) {
		return false, nil
	}
	if !e.acquire(opportunityID) {
		// A recompute for this opportunity is already running.
		return false, nil
	}
	defer e.release(opportunityID)

	opp, err := e.Repo.GetOpportunityByID(ctx, opportunityID)
	if err != nil {
		return false, err
	}
	if opp == nil || opp.Status != models.OpportunityStatusOpen {
		return false, nil
	}
	if err := e.recompute(ctx, *opp, snap, models.SnapshotSourceEvent, uuid.NewString()); err != nil {
		if errors.Is(err, service.ErrOpportunityClosed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// passCooldown checks and advances the per-opportunity event cooldown. The
// in-memory ledger is seeded from the latest event snapshot on first sight, so
// a restart does not reopen the window early.
func (e *Engine) passCooldown(ctx context.Context, opportunityID uint64, cooldown time.Duration, now time.Time) bool {
	if cooldown <= 0 {
		return true
	}
	e.mu.Lock()
	last, seen := e.lastEvent[opportunityID]
	e.mu.Unlock()

	if !seen {
		if latest, err := e.Repo.GetLatestPriceSnapshot(ctx, opportunityID); err == nil &&
			latest != nil && latest.Source == models.SnapshotSourceEvent {
			last = latest.CreatedAt
		}
	}
	if !last.IsZero() && now.Sub(last) < cooldown {
		return false
	}
	e.mu.Lock()
	e.lastEvent[opportunityID] = now
	e.mu.Unlock()
	return true
}

// ManualSet pushes an operator-chosen price through the normal clamp,
// quantization and commit path. The requested amount must be positive; the
// final price may differ after normalization.
func (e *Engine) ManualSet(ctx context.Context, opportunityID uint64, requested float64, payload json.RawMessage) (*models.PriceSnapshot, pricing.Result, error) {
	if e == nil || e.Repo == nil {
		return nil, pricing.Result{}, errors.New("engine not configured")
	}
	if requested <= 0 {
		return nil, pricing.Result{}, errors.New("price must be positive")
	}
	snap, err := e.Tuning.Refresh(ctx)
	if err != nil && snap == nil {
		return nil, pricing.Result{}, err
	}
	if snap == nil {
		return nil, pricing.Result{}, errors.New("tuning snapshot unavailable")
	}
	opp, err := e.Repo.GetOpportunityByID(ctx, opportunityID)
	if err != nil {
		return nil, pricing.Result{}, err
	}
	if opp == nil {
		return nil, pricing.Result{}, service.ErrNotFound
	}
	if opp.Status != models.OpportunityStatusOpen {
		return nil, pricing.Result{}, service.ErrOpportunityClosed
	}

	if !e.acquire(opportunityID) {
		return nil, pricing.Result{}, errors.New("recompute in progress, retry")
	}
	defer e.release(opportunityID)

	result := pricing.Manual(requested, opp.Tier, snap.Variables, snap.Config, payload)
	item, err := e.Committer.Commit(ctx, opportunityID, result, models.SnapshotSourceManual, "")
	if err != nil {
		return nil, pricing.Result{}, err
	}
	return item, result, nil
}

func (e *Engine) acquire(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) release(id uint64) {
	e.mu.Lock()
	delete(e.inflight, id)
	e.mu.Unlock()
}
