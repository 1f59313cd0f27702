package pricing

import "math"

// Transform tags form a closed set resolved by lookup. Operator input is never
// evaluated as an expression; an unknown tag degrades to identity.
const (
	TransformIdentity    = "identity"
	TransformLogCompress = "log_compress"
	TransformSigmoid     = "sigmoid"
	TransformStep        = "step"
)

func KnownTransforms() []string {
	return []string{TransformIdentity, TransformLogCompress, TransformSigmoid, TransformStep}
}

func IsKnownTransform(tag string) bool {
	switch tag {
	case "", TransformIdentity, TransformLogCompress, TransformSigmoid, TransformStep:
		return true
	}
	return false
}

// ApplyTransform maps a raw non-negative signal magnitude through the named
// curve. Signals are counts or 0..1 ratios, so each curve only needs to be
// well-behaved on [0, +inf).
func ApplyTransform(tag string, v float64) float64 {
	switch tag {
	case TransformLogCompress:
		if v <= 0 {
			return 0
		}
		return math.Log1p(v)
	case TransformSigmoid:
		// Saturating: 0 at rest, approaching 1 as the signal grows.
		if v <= 0 {
			return 0
		}
		return math.Tanh(v)
	case TransformStep:
		if v >= 1 {
			return 1
		}
		return 0
	default:
		return v
	}
}
