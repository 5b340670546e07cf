package contracts

import "time"

// MarketRegime is a coarse classification of the prevailing index trend
// from moving-average relationships.
type MarketRegime string

const (
	RegimeBull    MarketRegime = "BULL"
	RegimeBear    MarketRegime = "BEAR"
	RegimeNeutral MarketRegime = "NEUTRAL"
)

// MarketFeatures holds index-relative risk/return signals for one symbol
// on one date. One-to-one with a PricePoint's date once warm-up history
// exists.
type MarketFeatures struct {
	Date             time.Time    `json:"date"`
	MarketReturn     float64      `json:"market_return"`
	RelativeReturn   float64      `json:"relative_return"`
	Beta             float64      `json:"beta"`
	IndexCorrelation float64      `json:"index_correlation"`
	VIX              float64      `json:"vix"`
	VolatilitySpread float64      `json:"volatility_spread"`
	MarketRegime     MarketRegime `json:"market_regime"`
	DistanceFromMA   float64      `json:"distance_from_ma"`
}

// FeaturesUpTo returns the prefix of features whose dates are not after
// cutoff. Features are assumed ascending by date.
func FeaturesUpTo(features []MarketFeatures, cutoff time.Time) []MarketFeatures {
	end := len(features)
	for i, f := range features {
		if f.Date.After(cutoff) {
			end = i
			break
		}
	}
	return features[:end]
}
