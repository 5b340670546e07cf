// Package backtest simulates a trading strategy against historical
// prices. The engine walks the series day by day, forms a signal from
// data available through day i, and executes it at day i+1's opening
// price so the simulation never trades on information it did not have.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/internal/predict"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// Config holds backtest parameters.
type Config struct {
	WindowSize      int
	Horizon         int
	InitialCapital  float64
	TransactionCost float64 // fraction of trade value, e.g. 0.001
	Thresholds      contracts.SignalThresholds
}

// ProgressFunc is called after each simulated day.
type ProgressFunc func(current, total int)

// Engine runs walk-forward backtests.
type Engine struct {
	config    Config
	predictor *predict.Engine
	logger    *logger.Logger
}

// New creates a backtest engine sharing the given prediction engine.
func New(config Config, predictor *predict.Engine, log *logger.Logger) *Engine {
	return &Engine{
		config:    config,
		predictor: predictor,
		logger:    log.WithComponent("backtest"),
	}
}

// Run simulates the last `days` trading days of the history.
func (e *Engine) Run(ctx context.Context, symbol string, forecaster contracts.Forecaster, history []contracts.PricePoint, features []contracts.MarketFeatures, days int) (*contracts.BacktestResult, error) {
	return e.RunWithProgress(ctx, symbol, forecaster, history, features, days, nil)
}

// RunWithProgress is Run with a per-day progress callback.
func (e *Engine) RunWithProgress(ctx context.Context, symbol string, forecaster contracts.Forecaster, history []contracts.PricePoint, features []contracts.MarketFeatures, days int, progress ProgressFunc) (*contracts.BacktestResult, error) {
	if days < 1 {
		return nil, contracts.NewDataError(symbol, "backtest days must be positive, got %d", days)
	}
	if !forecaster.IsTrained() {
		return nil, contracts.NewModelError(symbol, "forecaster is not trained")
	}

	startIndex := len(history) - days - 1
	if startIndex < 0 {
		startIndex = 0
	}
	if len(history)-startIndex < e.config.WindowSize+1 {
		return nil, contracts.NewDataError(symbol, "insufficient data: need at least %d points after start, have %d",
			e.config.WindowSize+1, len(history)-startIndex)
	}

	totalDays := len(history) - startIndex
	contextSize := e.config.WindowSize * 4

	state := newPortfolioState(e.config.InitialCapital)
	equityCurve := make([]contracts.EquityPoint, 0, totalDays)

	e.logger.WithFields(map[string]interface{}{
		"symbol":          symbol,
		"days":            totalDays,
		"initial_capital": e.config.InitialCapital,
	}).Info("starting backtest")

	for i := startIndex; i < len(history); i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backtest cancelled for %s: %w", symbol, ctx.Err())
		default:
		}

		windowStart := i + 1 - contextSize
		if windowStart < 0 {
			windowStart = 0
		}
		window := history[windowStart : i+1]
		windowFeatures := visibleFeatures(features, window)

		signal, err := e.signalForDay(ctx, symbol, forecaster, window, windowFeatures)
		if err != nil {
			return nil, fmt.Errorf("backtest cancelled for %s: %w", symbol, err)
		}

		// Execute against the next day's open. The final day has no
		// next day, so its signal goes unexecuted.
		if i+1 < len(history) {
			state = applySignal(state, signal, history[i+1], e.config.TransactionCost)
		}

		equityCurve = append(equityCurve, contracts.EquityPoint{
			Date:  history[i].Date,
			Value: state.equity(history[i].Close),
		})

		if progress != nil {
			progress(i-startIndex+1, totalDays)
		}
	}

	finalValue := equityCurve[len(equityCurve)-1].Value
	totalReturn := (finalValue - e.config.InitialCapital) / e.config.InitialCapital
	benchmark := benchmarkReturn(history, startIndex)

	result := &contracts.BacktestResult{
		RunID:           uuid.New().String(),
		Symbol:          symbol,
		EquityCurve:     equityCurve,
		Trades:          state.Trades,
		TotalReturn:     totalReturn,
		BenchmarkReturn: benchmark,
		Alpha:           totalReturn - benchmark,
		Drawdown:        computeDrawdown(equityCurve),
		SharpeRatio:     computeSharpe(equityCurve),
		WinRate:         computeWinRate(state.Trades),
		FinalValue:      finalValue,
		InitialValue:    e.config.InitialCapital,
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":       symbol,
		"run_id":       result.RunID,
		"total_return": fmt.Sprintf("%.4f", result.TotalReturn),
		"alpha":        fmt.Sprintf("%.4f", result.Alpha),
		"trades":       len(result.Trades),
	}).Info("backtest complete")

	return result, nil
}

// signalForDay predicts from the visible window and converts the
// forecast into a signal. Model-level prediction failures degrade to
// HOLD so one bad day does not abort a long simulation, but a
// cancelled or expired context aborts the run rather than silently
// finishing on HOLD signals.
func (e *Engine) signalForDay(ctx context.Context, symbol string, forecaster contracts.Forecaster, window []contracts.PricePoint, windowFeatures []contracts.MarketFeatures) (contracts.TradingSignal, error) {
	prediction, err := e.predictor.Predict(ctx, symbol, forecaster, window, e.config.Horizon, windowFeatures)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return contracts.TradingSignal{}, err
		}
		e.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"date":   window[len(window)-1].Date.Format("2006-01-02"),
			"error":  err.Error(),
		}).Warn("prediction failed during backtest, holding")
		return contracts.TradingSignal{Action: contracts.ActionHold, Reason: "prediction unavailable"}, nil
	}

	return predict.GenerateSignal(prediction, e.config.Thresholds), nil
}

// visibleFeatures restricts features to the dates covered by the price
// window, so no feature row leaks information from beyond day i.
func visibleFeatures(features []contracts.MarketFeatures, window []contracts.PricePoint) []contracts.MarketFeatures {
	if len(features) == 0 || len(window) == 0 {
		return nil
	}

	cutoff := window[len(window)-1].Date
	visible := contracts.FeaturesUpTo(features, cutoff)

	windowStart := window[0].Date
	trimmed := visible[:0:0]
	for _, f := range visible {
		if !f.Date.Before(windowStart) {
			trimmed = append(trimmed, f)
		}
	}
	return trimmed
}
