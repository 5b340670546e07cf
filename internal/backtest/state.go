package backtest

import (
	"math"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// portfolioState is the running simulation state threaded through the
// day loop as an explicit accumulator. Each step is a pure function of
// (state, day), which keeps the simulation independently testable.
type portfolioState struct {
	Cash   float64
	Shares int64
	Trades []contracts.Trade
}

// newPortfolioState starts a simulation with all capital in cash.
func newPortfolioState(initialCapital float64) portfolioState {
	return portfolioState{Cash: initialCapital}
}

// equity marks the portfolio to market at the given closing price.
func (s portfolioState) equity(closePrice float64) float64 {
	return s.Cash + float64(s.Shares)*closePrice
}

// applySignal executes a signal against the execution day's OPENING
// price and returns the new state. Signals are generated from day i's
// context but transact at day i+1's open, so no trade ever uses
// information unavailable when the signal was formed.
func applySignal(state portfolioState, signal contracts.TradingSignal, executionDay contracts.PricePoint, costRate float64) portfolioState {
	openPrice := executionDay.Open

	switch signal.Action {
	case contracts.ActionBuy:
		if state.Cash <= 0 || openPrice <= 0 {
			return state
		}

		cost := state.Cash * costRate
		sharesToBuy := int64(math.Floor((state.Cash - cost) / openPrice))
		if sharesToBuy <= 0 {
			return state
		}

		value := float64(sharesToBuy) * openPrice
		state.Cash -= value + cost
		state.Shares += sharesToBuy
		state.Trades = append(state.Trades, contracts.Trade{
			Action: contracts.ActionBuy,
			Date:   executionDay.Date,
			Price:  openPrice,
			Shares: sharesToBuy,
			Value:  value,
		})

	case contracts.ActionSell:
		if state.Shares <= 0 || openPrice <= 0 {
			return state
		}

		value := float64(state.Shares) * openPrice
		cost := value * costRate
		state.Cash += value - cost
		state.Trades = append(state.Trades, contracts.Trade{
			Action: contracts.ActionSell,
			Date:   executionDay.Date,
			Price:  openPrice,
			Shares: state.Shares,
			Value:  value,
		})
		state.Shares = 0
	}

	return state
}
