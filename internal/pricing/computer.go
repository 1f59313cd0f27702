package pricing

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Signal names shared between the collector, the registry and the computer.
const (
	SignalTimeDecay        = "time_decay"
	SignalPitchVelocity    = "pitch_velocity"
	SignalOutletLoad       = "outlet_load"
	SignalEmailClick       = "email_click"
	SignalConversionRate   = "conversion_rate"
	SignalDeadlinePressure = "deadline_pressure"
)

// Registry variable names for the absolute dollar clamp overrides. Their
// weight column holds the dollar amount, not a multiplier.
const (
	VariablePriceFloor   = "price_floor"
	VariablePriceCeiling = "price_ceiling"
)

// Variable is one registry entry as seen by the computer.
type Variable struct {
	Weight    float64
	Transform string
}

// EngineConfig is the parsed ConfigStore snapshot.
type EngineConfig struct {
	PriceStep          decimal.Decimal
	TickInterval       time.Duration
	Cooldown           time.Duration
	PitchVelocityBoost float64
	OutletLoadPenalty  float64
	EmailClickBoost    float64
	ConversionPenalty  float64
}

// Inputs is everything Compute needs. It never reaches for storage or clocks,
// so identical inputs always produce an identical Result.
type Inputs struct {
	CurrentPrice decimal.Decimal
	Tier         int
	Signals      map[string]float64
	Variables    map[string]Variable
	Config       EngineConfig
}

// Contribution explains one signal's share of the delta, in dollars.
type Contribution struct {
	Raw         float64 `json:"raw"`
	Transform   string  `json:"transform"`
	Transformed float64 `json:"transformed"`
	Weight      float64 `json:"weight"`
	Coefficient float64 `json:"coefficient"`
	Amount      float64 `json:"amount"`
}

// Breakdown is the full explain payload persisted with every snapshot.
type Breakdown struct {
	Signals   map[string]Contribution `json:"signals"`
	Delta     float64                 `json:"delta"`
	RawTarget float64                 `json:"raw_target"`
	Floor     float64                 `json:"floor"`
	Ceiling   float64                 `json:"ceiling"`
	Step      float64                 `json:"step"`
	Final     float64                 `json:"final"`

	// Payload is the caller-supplied signal snapshot on manual pushes. Stored
	// verbatim, never interpreted.
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Result struct {
	Price     decimal.Decimal
	Breakdown Breakdown
}

// Compute combines signals, weights and transforms into the next price:
// transform -> weight x coefficient x step -> sum -> clamp -> quantize.
// A signal with no registry variable contributes nothing but still appears in
// the breakdown so operators can see what was measured.
func Compute(in Inputs) Result {
	step, _ := in.Config.PriceStep.Float64()
	if step <= 0 {
		step = 5
	}

	floor, ceiling := clampBand(in.Tier, in.Variables)

	names := make([]string, 0, len(in.Signals))
	for name := range in.Signals {
		names = append(names, name)
	}
	sort.Strings(names)

	contributions := make(map[string]Contribution, len(names))
	delta := 0.0
	for _, name := range names {
		raw := in.Signals[name]
		variable, ok := in.Variables[name]
		if !ok {
			contributions[name] = Contribution{Raw: raw, Transform: TransformIdentity, Transformed: raw}
			continue
		}
		transformed := ApplyTransform(variable.Transform, raw)
		coefficient := coefficientFor(name, in.Config)
		amount := transformed * variable.Weight * coefficient * step
		contributions[name] = Contribution{
			Raw:         raw,
			Transform:   transformTag(variable.Transform),
			Transformed: transformed,
			Weight:      variable.Weight,
			Coefficient: coefficient,
			Amount:      amount,
		}
		delta += amount
	}

	current, _ := in.CurrentPrice.Float64()
	rawTarget := current + delta
	clamped := math.Min(math.Max(rawTarget, floor), ceiling)
	final := quantizeInto(clamped, step, floor, ceiling)

	return Result{
		Price: decimal.NewFromFloat(final).Round(2),
		Breakdown: Breakdown{
			Signals:   contributions,
			Delta:     delta,
			RawTarget: rawTarget,
			Floor:     floor,
			Ceiling:   ceiling,
			Step:      step,
			Final:     final,
		},
	}
}

// Manual normalizes an operator-requested price: same clamp band and
// quantization grid as a recomputation, no signal delta. The breakdown records
// the requested amount as the raw target so the audit trail explains the push.
func Manual(requested float64, tier int, variables map[string]Variable, cfg EngineConfig, payload json.RawMessage) Result {
	step, _ := cfg.PriceStep.Float64()
	if step <= 0 {
		step = 5
	}
	floor, ceiling := clampBand(tier, variables)
	clamped := math.Min(math.Max(requested, floor), ceiling)
	final := quantizeInto(clamped, step, floor, ceiling)
	return Result{
		Price: decimal.NewFromFloat(final).Round(2),
		Breakdown: Breakdown{
			Signals:   map[string]Contribution{},
			RawTarget: requested,
			Floor:     floor,
			Ceiling:   ceiling,
			Step:      step,
			Final:     final,
			Payload:   payload,
		},
	}
}

// Quantize snaps a value to the nearest multiple of step, rounding halves away
// from zero. The tie-break is direction-symmetric, which keeps recomputation
// with identical inputs idempotent at exact half-step boundaries.
func Quantize(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}

// quantizeInto quantizes and then nudges back inside the clamp band when the
// nearest step multiple falls outside it.
func quantizeInto(value, step, floor, ceiling float64) float64 {
	q := Quantize(value, step)
	if q > ceiling {
		q -= step
	}
	if q < floor {
		q += step
	}
	if q < floor || q > ceiling {
		// No step multiple fits the band; the clamp invariant wins.
		return math.Min(math.Max(value, floor), ceiling)
	}
	return q
}

func clampBand(tier int, variables map[string]Variable) (float64, float64) {
	floor := defaultFloor(tier)
	ceiling := defaultCeiling(tier)
	if v, ok := variables[VariablePriceFloor]; ok && v.Weight > 0 {
		floor = v.Weight
	}
	if v, ok := variables[VariablePriceCeiling]; ok && v.Weight > 0 {
		ceiling = v.Weight
	}
	if floor >= ceiling {
		// Misconfigured override; fall back to the tier band.
		return defaultFloor(tier), defaultCeiling(tier)
	}
	return floor, ceiling
}

// coefficientFor maps a signal to its ConfigStore boost/penalty magnitude.
// Signals without a config coefficient (time decay, deadline pressure) carry
// their direction in the variable weight and get 1 here.
func coefficientFor(name string, cfg EngineConfig) float64 {
	switch name {
	case SignalPitchVelocity:
		return cfg.PitchVelocityBoost
	case SignalOutletLoad:
		return cfg.OutletLoadPenalty
	case SignalEmailClick:
		return cfg.EmailClickBoost
	case SignalConversionRate:
		return cfg.ConversionPenalty
	default:
		return 1
	}
}

func transformTag(tag string) string {
	if !IsKnownTransform(tag) || tag == "" {
		return TransformIdentity
	}
	return tag
}
