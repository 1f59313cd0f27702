package signal

import (
	"context"
	"testing"
	"time"

	"pressmarket/internal/models"
	"pressmarket/internal/pricing"
)

type stubCollectorRepo struct {
	pitches   int64
	submitted int64
	accepted  int64
	clicks    int64
	load      int64

	gotSince     time.Time
	gotExcludeID uint64
}

func (s *stubCollectorRepo) CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	s.gotSince = since
	return s.pitches, nil
}

func (s *stubCollectorRepo) PitchConversion(ctx context.Context, opportunityID uint64) (int64, int64, error) {
	return s.submitted, s.accepted, nil
}

func (s *stubCollectorRepo) CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	return s.clicks, nil
}

func (s *stubCollectorRepo) CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error) {
	s.gotExcludeID = excludeID
	return s.load, nil
}

func testOpportunity(createdAgo, untilDeadline time.Duration) models.Opportunity {
	now := time.Now().UTC()
	return models.Opportunity{
		ID:            7,
		Tier:          pricing.TierStandard,
		PublicationID: 3,
		Status:        models.OpportunityStatusOpen,
		Deadline:      now.Add(untilDeadline),
		CreatedAt:     now.Add(-createdAgo),
	}
}

func TestCollect_AllSignalsPresent(t *testing.T) {
	repo := &stubCollectorRepo{pitches: 4, submitted: 8, accepted: 2, clicks: 3, load: 5}
	c := &Collector{Repo: repo}
	signals, err := c.Collect(context.Background(), testOpportunity(48*time.Hour, 24*time.Hour), time.Now().UTC())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{
		pricing.SignalTimeDecay,
		pricing.SignalPitchVelocity,
		pricing.SignalOutletLoad,
		pricing.SignalEmailClick,
		pricing.SignalConversionRate,
		pricing.SignalDeadlinePressure,
	}
	for _, name := range want {
		if _, ok := signals[name]; !ok {
			t.Fatalf("missing signal %s", name)
		}
	}
	if signals[pricing.SignalPitchVelocity] != 4 {
		t.Fatalf("pitch_velocity=%v want 4", signals[pricing.SignalPitchVelocity])
	}
	if signals[pricing.SignalOutletLoad] != 5 {
		t.Fatalf("outlet_load=%v want 5", signals[pricing.SignalOutletLoad])
	}
	if signals[pricing.SignalEmailClick] != 3 {
		t.Fatalf("email_click=%v want 3", signals[pricing.SignalEmailClick])
	}
	if repo.gotExcludeID != 7 {
		t.Fatalf("outlet load must exclude the opportunity itself, got exclude=%d", repo.gotExcludeID)
	}
}

func TestCollect_UsesTrailingWindow(t *testing.T) {
	repo := &stubCollectorRepo{}
	c := &Collector{Repo: repo, Window: 6 * time.Hour}
	now := time.Now().UTC()
	if _, err := c.Collect(context.Background(), testOpportunity(time.Hour, 24*time.Hour), now); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := now.Sub(repo.gotSince); got != 6*time.Hour {
		t.Fatalf("window=%v want 6h", got)
	}
}

func TestTimeDecay(t *testing.T) {
	now := time.Now().UTC()
	if got := timeDecay(now, now); got != 0 {
		t.Fatalf("fresh opportunity decay=%v want 0", got)
	}
	got := timeDecay(now.Add(-84*time.Hour), now)
	if got < 0.49 || got > 0.51 {
		t.Fatalf("half-horizon decay=%v want ~0.5", got)
	}
	if got := timeDecay(now.Add(-400*time.Hour), now); got != 1 {
		t.Fatalf("old opportunity decay=%v want capped at 1", got)
	}
}

func TestConversionShortfall(t *testing.T) {
	if got := conversionShortfall(0, 0); got != 0 {
		t.Fatalf("no submissions shortfall=%v want 0", got)
	}
	if got := conversionShortfall(10, 10); got != 0 {
		t.Fatalf("full conversion shortfall=%v want 0", got)
	}
	if got := conversionShortfall(10, 0); got != 1 {
		t.Fatalf("zero conversion shortfall=%v want 1", got)
	}
	if got := conversionShortfall(8, 2); got != 0.75 {
		t.Fatalf("shortfall=%v want 0.75", got)
	}
}

func TestDeadlinePressure(t *testing.T) {
	now := time.Now().UTC()
	created := now.Add(-50 * time.Hour)
	deadline := now.Add(50 * time.Hour)
	got := deadlinePressure(created, deadline, now)
	if got < 0.49 || got > 0.51 {
		t.Fatalf("midway pressure=%v want ~0.5", got)
	}
	if got := deadlinePressure(created, now.Add(-time.Minute), now); got != 1 {
		t.Fatalf("past deadline pressure=%v want 1", got)
	}
	if got := deadlinePressure(created, time.Time{}, now); got != 0 {
		t.Fatalf("no deadline pressure=%v want 0", got)
	}
}
