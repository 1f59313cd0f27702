package tuning

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
)

// Snapshot is one immutable, fully built view of both tunable tables. Workers
// read whatever snapshot their tick started with; a reload swaps the whole
// snapshot, never individual fields.
type Snapshot struct {
	Config    pricing.EngineConfig
	Variables map[string]pricing.Variable
	Watermark time.Time
	LoadedAt  time.Time
}

type snapshotRepo interface {
	ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error)
	ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error)
	MaxTuningUpdatedAt(ctx context.Context) (time.Time, error)
}

// Cache keeps the current snapshot behind a watermark: a tick-time Refresh
// reloads both tables only when the newest updated_at in storage has advanced
// past the cached watermark, or after ForceReload.
type Cache struct {
	Repo   snapshotRepo
	Logger *zap.Logger

	mu        sync.RWMutex
	snap      *Snapshot
	watermark time.Time
	force     bool
}

// Current returns the last loaded snapshot, which may be nil before the first
// Refresh.
func (c *Cache) Current() *Snapshot {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// ForceReload resets the watermark so the next Refresh reloads even if
// updated_at has not advanced.
func (c *Cache) ForceReload() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.force = true
	c.mu.Unlock()
}

// Refresh returns a snapshot no older than the storage watermark. On a
// storage error it returns the cached snapshot (if any) alongside the error so
// a tick can proceed with slightly stale tunables rather than stall.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	if c == nil || c.Repo == nil {
		return nil, nil
	}
	mark, err := c.Repo.MaxTuningUpdatedAt(ctx)
	if err != nil {
		return c.Current(), err
	}

	c.mu.RLock()
	cached := c.snap
	stale := c.force || cached == nil || mark.After(c.watermark)
	c.mu.RUnlock()
	if !stale {
		return cached, nil
	}

	next, err := c.load(ctx, mark)
	if err != nil {
		return c.Current(), err
	}

	c.mu.Lock()
	c.snap = next
	c.watermark = mark
	c.force = false
	c.mu.Unlock()

	if c.Logger != nil {
		c.Logger.Info("tuning snapshot reloaded",
			zap.Time("watermark", mark),
			zap.Int("variables", len(next.Variables)),
		)
	}
	return next, nil
}

func (c *Cache) load(ctx context.Context, mark time.Time) (*Snapshot, error) {
	variables, err := c.Repo.ListPricingVariables(ctx)
	if err != nil {
		return nil, err
	}
	configs, err := c.Repo.ListPricingConfigs(ctx)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]pricing.Variable, len(variables))
	for _, v := range variables {
		vars[v.Name] = pricing.Variable{Weight: v.Weight, Transform: v.Transform}
	}

	return &Snapshot{
		Config:    parseConfig(configs),
		Variables: vars,
		Watermark: mark,
		LoadedAt:  time.Now().UTC(),
	}, nil
}

func parseConfig(items []models.PricingConfig) pricing.EngineConfig {
	values := DefaultConfigValues()
	for _, item := range items {
		var v float64
		if err := json.Unmarshal(item.Value, &v); err != nil {
			continue
		}
		if _, ok := values[item.Key]; ok {
			values[item.Key] = v
		}
	}
	return pricing.EngineConfig{
		PriceStep:          decimal.NewFromFloat(values[KeyPriceStep]),
		TickInterval:       time.Duration(values[KeyTickIntervalSeconds]) * time.Second,
		Cooldown:           time.Duration(values[KeyCooldownMinutes]) * time.Minute,
		PitchVelocityBoost: values[KeyPitchVelocityBoost],
		OutletLoadPenalty:  values[KeyOutletLoadPenalty],
		EmailClickBoost:    values[KeyEmailClickBoost],
		ConversionPenalty:  values[KeyConversionPenalty],
	}
}

// DefaultConfigValues is the boot seed and the fallback for missing or
// unparseable rows.
func DefaultConfigValues() map[string]float64 {
	return map[string]float64{
		KeyPriceStep:           5,
		KeyTickIntervalSeconds: 60,
		KeyConversionPenalty:   -0.5,
		KeyPitchVelocityBoost:  0.6,
		KeyOutletLoadPenalty:   -0.4,
		KeyEmailClickBoost:     0.5,
		KeyCooldownMinutes:     10,
	}
}

// DefaultVariables seeds the registry at boot. price_floor / price_ceiling are
// deliberately absent: the tier band applies until an operator sets them.
func DefaultVariables() []models.PricingVariable {
	return []models.PricingVariable{
		{Name: pricing.SignalTimeDecay, Weight: -1, Transform: pricing.TransformIdentity},
		{Name: pricing.SignalPitchVelocity, Weight: 1.5, Transform: pricing.TransformLogCompress},
		{Name: pricing.SignalOutletLoad, Weight: 1, Transform: pricing.TransformLogCompress},
		{Name: pricing.SignalEmailClick, Weight: 1, Transform: pricing.TransformLogCompress},
		{Name: pricing.SignalConversionRate, Weight: 1, Transform: pricing.TransformIdentity},
		{Name: pricing.SignalDeadlinePressure, Weight: -2, Transform: pricing.TransformSigmoid},
	}
}
