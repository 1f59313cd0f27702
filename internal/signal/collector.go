package signal

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
)

// decayHorizon is the age at which time decay saturates: a week-old
// opportunity with no activity is decaying as hard as it ever will.
const decayHorizon = 168 * time.Hour

type collectorRepo interface {
	CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error)
	PitchConversion(ctx context.Context, opportunityID uint64) (int64, int64, error)
	CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error)
	CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error)
}

// Collector gathers one opportunity's raw signal values, each normalized to a
// comparable scale. It performs no weighting; retuning weights never touches
// this code.
type Collector struct {
	Repo   collectorRepo
	Logger *zap.Logger

	// Window is the trailing window for activity counts (pitches, clicks).
	Window time.Duration
}

func (c *Collector) window() time.Duration {
	if c == nil || c.Window <= 0 {
		return 24 * time.Hour
	}
	return c.Window
}

// Collect returns the raw signal map for one opportunity. Any storage error
// aborts the whole collection; the scheduler skips this opportunity until the
// next cycle.
func (c *Collector) Collect(ctx context.Context, opp models.Opportunity, now time.Time) (map[string]float64, error) {
	if c == nil || c.Repo == nil {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	since := now.Add(-c.window())

	pitches, err := c.Repo.CountPitchesSince(ctx, opp.ID, since)
	if err != nil {
		return nil, err
	}
	submitted, accepted, err := c.Repo.PitchConversion(ctx, opp.ID)
	if err != nil {
		return nil, err
	}
	clicks, err := c.Repo.CountClickEventsSince(ctx, opp.ID, since)
	if err != nil {
		return nil, err
	}
	load, err := c.Repo.CountOpenByPublication(ctx, opp.PublicationID, opp.ID)
	if err != nil {
		return nil, err
	}

	return map[string]float64{
		pricing.SignalTimeDecay:        timeDecay(opp.CreatedAt, now),
		pricing.SignalPitchVelocity:    float64(pitches),
		pricing.SignalOutletLoad:       float64(load),
		pricing.SignalEmailClick:       float64(clicks),
		pricing.SignalConversionRate:   conversionShortfall(submitted, accepted),
		pricing.SignalDeadlinePressure: deadlinePressure(opp.CreatedAt, opp.Deadline, now),
	}, nil
}

func timeDecay(createdAt, now time.Time) float64 {
	if createdAt.IsZero() || !now.After(createdAt) {
		return 0
	}
	return math.Min(float64(now.Sub(createdAt))/float64(decayHorizon), 1)
}

// conversionShortfall is 1 - accepted/submitted: 0 when everything converts or
// nothing has been submitted yet, approaching 1 as pitches stall.
func conversionShortfall(submitted, accepted int64) float64 {
	if submitted <= 0 {
		return 0
	}
	rate := float64(accepted) / float64(submitted)
	return math.Min(math.Max(1-rate, 0), 1)
}

func deadlinePressure(createdAt, deadline, now time.Time) float64 {
	if deadline.IsZero() {
		return 0
	}
	if !deadline.After(now) {
		return 1
	}
	total := deadline.Sub(createdAt)
	if total <= 0 {
		return 1
	}
	elapsed := now.Sub(createdAt)
	return math.Min(math.Max(float64(elapsed)/float64(total), 0), 1)
}
