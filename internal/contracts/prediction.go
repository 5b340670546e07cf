package contracts

import "time"

// PredictedPoint is one forecast day with its confidence interval.
type PredictedPoint struct {
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
}

// PredictionResult is an uncertainty-quantified multi-day forecast for
// one symbol. Created per prediction call; not persisted by the core.
type PredictionResult struct {
	Symbol          string           `json:"symbol"`
	CurrentPrice    float64          `json:"current_price"`
	PredictedPrices []float64        `json:"predicted_prices"`
	LowerBound      float64          `json:"lower_bound"`
	UpperBound      float64          `json:"upper_bound"`
	Confidence      float64          `json:"confidence"` // 0-1
	PercentChange   float64          `json:"percent_change"`
	PredictedData   []PredictedPoint `json:"predicted_data"`
}

// SignalAction is a discrete trading decision.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// TradingSignal is derived deterministically from a PredictionResult.
type TradingSignal struct {
	Action     SignalAction `json:"action"`
	Confidence float64      `json:"confidence"`
	Delta      float64      `json:"delta"` // forecast percent change
	Reason     string       `json:"reason"`
}

// SignalThresholds parameterize signal generation.
type SignalThresholds struct {
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
	MinConfidence float64 `json:"min_confidence"`
}
