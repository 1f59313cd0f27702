package pricing

import "github.com/shopspring/decimal"

// Three discrete opportunity tiers, each implying a base (starting) price.
// The default clamp band is derived from the base: floor = base/2,
// ceiling = 2*base. The price_floor / price_ceiling registry variables
// override the band globally when set.
const (
	TierStandard = 1
	TierFeature  = 2
	TierPremium  = 3
)

func BasePrice(tier int) decimal.Decimal {
	switch tier {
	case TierFeature:
		return decimal.NewFromInt(175)
	case TierPremium:
		return decimal.NewFromInt(300)
	default:
		return decimal.NewFromInt(100)
	}
}

func IsValidTier(tier int) bool {
	return tier >= TierStandard && tier <= TierPremium
}

func defaultFloor(tier int) float64 {
	base, _ := BasePrice(tier).Float64()
	return base / 2
}

func defaultCeiling(tier int) float64 {
	base, _ := BasePrice(tier).Float64()
	return base * 2
}
