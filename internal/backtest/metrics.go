package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jmoretti/sibyl/internal/contracts"
)

const tradingDaysPerYear = 252

// computeDrawdown returns the maximum peak-to-trough decline of the
// equity curve as a fraction of the peak.
func computeDrawdown(curve []contracts.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Value
	maxDrawdown := 0.0

	for _, point := range curve {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			drawdown := (peak - point.Value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// computeSharpe annualizes the ratio of mean daily equity return to its
// standard deviation. Returns 0 when fewer than two returns exist or
// the curve never moves.
func computeSharpe(curve []contracts.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Value-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := stat.Mean(returns, nil)
	stdDev := stat.StdDev(returns, nil)
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(tradingDaysPerYear)
}

// computeWinRate pairs trades greedily into (BUY, SELL) round trips in
// chronological order and counts a win when the sell proceeds exceed
// the buy cost. An open position at the end of the run is ignored.
func computeWinRate(trades []contracts.Trade) float64 {
	var buyValue float64
	var holding bool
	var wins, roundTrips int

	for _, trade := range trades {
		switch trade.Action {
		case contracts.ActionBuy:
			if !holding {
				buyValue = trade.Value
				holding = true
			}
		case contracts.ActionSell:
			if holding {
				roundTrips++
				if trade.Value > buyValue {
					wins++
				}
				holding = false
			}
		}
	}

	if roundTrips == 0 {
		return 0
	}
	return float64(wins) / float64(roundTrips)
}

// benchmarkReturn is the buy-and-hold return of the asset itself over
// the simulated window.
func benchmarkReturn(history []contracts.PricePoint, startIndex int) float64 {
	if startIndex >= len(history)-1 {
		return 0
	}
	start := history[startIndex].Close
	if start == 0 {
		return 0
	}
	return (history[len(history)-1].Close - start) / start
}
