package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmoretti/sibyl/internal/contracts"
)

func TestGenerateSignal(t *testing.T) {
	thresholds := contracts.SignalThresholds{
		BuyThreshold:  0.05,
		SellThreshold: -0.05,
		MinConfidence: 0.6,
	}

	tests := []struct {
		name       string
		delta      float64
		confidence float64
		want       contracts.SignalAction
	}{
		{"strong up move", 0.10, 0.8, contracts.ActionBuy},
		{"exactly at buy threshold", 0.05, 0.6, contracts.ActionBuy},
		{"up move low confidence", 0.10, 0.5, contracts.ActionHold},
		{"strong down move", -0.10, 0.8, contracts.ActionSell},
		{"exactly at sell threshold", -0.05, 0.6, contracts.ActionSell},
		{"down move low confidence", -0.10, 0.3, contracts.ActionHold},
		{"flat forecast", 0.01, 0.9, contracts.ActionHold},
		{"zero everything", 0, 0, contracts.ActionHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction := &contracts.PredictionResult{
				PercentChange: tt.delta,
				Confidence:    tt.confidence,
			}

			signal := GenerateSignal(prediction, thresholds)
			assert.Equal(t, tt.want, signal.Action)
			assert.Equal(t, tt.confidence, signal.Confidence)
			assert.Equal(t, tt.delta, signal.Delta)
			assert.NotEmpty(t, signal.Reason)
		})
	}
}

func TestGenerateSignal_Deterministic(t *testing.T) {
	thresholds := contracts.SignalThresholds{BuyThreshold: 0.02, SellThreshold: -0.02, MinConfidence: 0.5}
	prediction := &contracts.PredictionResult{PercentChange: 0.03, Confidence: 0.7}

	first := GenerateSignal(prediction, thresholds)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GenerateSignal(prediction, thresholds))
	}
}
