package tuning

import (
	"fmt"
	"strings"

	"pressmarket/internal/pricing"
)

// Config keys the engine understands. Values are JSON numbers; durations are
// expressed in the unit the key name states.
const (
	KeyPriceStep           = "price_step"
	KeyTickIntervalSeconds = "tick_interval_seconds"
	KeyConversionPenalty   = "conversion_penalty"
	KeyPitchVelocityBoost  = "pitch_velocity_boost"
	KeyOutletLoadPenalty   = "outlet_load_penalty"
	KeyEmailClickBoost     = "email_click_boost"
	KeyCooldownMinutes     = "cooldown_minutes"
)

// ValidationError is rejected synchronously at the write boundary; nothing is
// partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type valueRange struct {
	min float64
	max float64
}

var configRanges = map[string]valueRange{
	KeyPriceStep:           {1, 20},
	KeyTickIntervalSeconds: {30, 300},
	KeyConversionPenalty:   {-1, 0},
	KeyPitchVelocityBoost:  {0, 1},
	KeyOutletLoadPenalty:   {-1, 0},
	KeyEmailClickBoost:     {0, 1},
	KeyCooldownMinutes:     {1, 30},
}

func KnownConfigKeys() []string {
	return []string{
		KeyPriceStep,
		KeyTickIntervalSeconds,
		KeyConversionPenalty,
		KeyPitchVelocityBoost,
		KeyOutletLoadPenalty,
		KeyEmailClickBoost,
		KeyCooldownMinutes,
	}
}

func ValidateConfigValue(key string, value float64) error {
	key = strings.TrimSpace(key)
	r, ok := configRanges[key]
	if !ok {
		return &ValidationError{Field: key, Reason: "unknown config key"}
	}
	if value < r.min || value > r.max {
		return &ValidationError{Field: key, Reason: fmt.Sprintf("must be between %g and %g", r.min, r.max)}
	}
	return nil
}

// ValidateVariable enforces the per-name legal range. The absolute dollar
// bound variables carry currency amounts in the weight column; everything else
// is a symmetric weight bounded to keep one signal from dominating.
func ValidateVariable(name string, weight float64, transform string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !pricing.IsKnownTransform(transform) {
		return &ValidationError{Field: "transform", Reason: "unknown transform tag"}
	}
	switch name {
	case pricing.VariablePriceFloor, pricing.VariablePriceCeiling:
		if weight <= 0 || weight > 10000 {
			return &ValidationError{Field: name, Reason: "must be a positive amount up to 10000"}
		}
	default:
		if weight < -10 || weight > 10 {
			return &ValidationError{Field: name, Reason: "must be between -10 and 10"}
		}
	}
	return nil
}
