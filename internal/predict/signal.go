package predict

import (
	"fmt"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// GenerateSignal derives a discrete trading signal from a prediction.
// Pure function: identical (percentChange, confidence, thresholds) always
// yields the identical action.
func GenerateSignal(prediction *contracts.PredictionResult, thresholds contracts.SignalThresholds) contracts.TradingSignal {
	delta := prediction.PercentChange
	confidence := prediction.Confidence

	switch {
	case delta >= thresholds.BuyThreshold && confidence >= thresholds.MinConfidence:
		return contracts.TradingSignal{
			Action:     contracts.ActionBuy,
			Confidence: confidence,
			Delta:      delta,
			Reason: fmt.Sprintf("forecast +%.2f%% over horizon at %.0f%% confidence",
				delta*100, confidence*100),
		}
	case delta <= thresholds.SellThreshold && confidence >= thresholds.MinConfidence:
		return contracts.TradingSignal{
			Action:     contracts.ActionSell,
			Confidence: confidence,
			Delta:      delta,
			Reason: fmt.Sprintf("forecast %.2f%% over horizon at %.0f%% confidence",
				delta*100, confidence*100),
		}
	default:
		return contracts.TradingSignal{
			Action:     contracts.ActionHold,
			Confidence: confidence,
			Delta:      delta,
			Reason:     "forecast within thresholds or confidence too low",
		}
	}
}
