package predict

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// zScore95 is the two-sided 95% normal interval multiplier.
const zScore95 = 1.96

// defaultMAPE stands in when a forecaster carries no evaluation metadata.
const defaultMAPE = 0.2

// ProgressFunc reports sampling progress as (current, total).
type ProgressFunc func(current, total int)

// Config holds prediction engine options.
type Config struct {
	WindowSize            int
	UncertaintyIterations int
}

// Engine turns raw forecaster output into an uncertainty-quantified
// forecast. Uncertainty comes from repeated stochastic sampling: the
// forecaster's predict path runs N times with its regularization active,
// and each horizon day's sample distribution yields a 95% interval.
type Engine struct {
	config Config
	logger *logger.Logger
}

// New creates a new prediction engine.
func New(config Config, log *logger.Logger) *Engine {
	return &Engine{
		config: config,
		logger: log.WithComponent("predict"),
	}
}

// Predict produces a multi-day forecast with confidence bounds.
func (e *Engine) Predict(ctx context.Context, symbol string, forecaster contracts.Forecaster, history []contracts.PricePoint, horizon int, features []contracts.MarketFeatures) (*contracts.PredictionResult, error) {
	return e.PredictWithProgress(ctx, symbol, forecaster, history, horizon, features, nil)
}

// PredictWithProgress is Predict with an optional per-iteration progress
// callback. The sampling loop checks cancellation every iteration and
// aborts with the context error rather than returning a partial result.
func (e *Engine) PredictWithProgress(ctx context.Context, symbol string, forecaster contracts.Forecaster, history []contracts.PricePoint, horizon int, features []contracts.MarketFeatures, progress ProgressFunc) (*contracts.PredictionResult, error) {
	if !forecaster.IsTrained() {
		return nil, contracts.NewModelError(symbol, "forecaster not trained")
	}
	if len(history) < e.config.WindowSize {
		return nil, contracts.NewPredictionError(symbol, "insufficient data: need at least %d points, got %d", e.config.WindowSize, len(history))
	}
	if horizon < 1 {
		return nil, contracts.NewPredictionError(symbol, "horizon must be positive, got %d", horizon)
	}

	iterations := e.config.UncertaintyIterations
	samples := make([][]float64, iterations) // [iteration][day]

	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("prediction cancelled for %s: %w", symbol, ctx.Err())
		default:
		}

		path, err := forecaster.Predict(ctx, history, horizon, features, contracts.PredictOptions{Training: true})
		if err != nil {
			return nil, err
		}
		if len(path) != horizon {
			return nil, contracts.NewPredictionError(symbol, "forecaster returned %d days, want %d", len(path), horizon)
		}
		samples[i] = path

		if progress != nil {
			progress(i+1, iterations)
		}
	}

	mean := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)

	sample := make([]float64, iterations)
	for d := 0; d < horizon; d++ {
		for i := 0; i < iterations; i++ {
			sample[i] = samples[i][d]
		}
		m := stat.Mean(sample, nil)
		sd := stat.PopStdDev(sample, nil)

		mean[d] = m
		lower[d] = m - zScore95*sd
		upper[d] = m + zScore95*sd
	}

	currentPrice := history[len(history)-1].Close
	confidence := confidenceFromMetadata(forecaster.Metadata())

	result := &contracts.PredictionResult{
		Symbol:          symbol,
		CurrentPrice:    currentPrice,
		PredictedPrices: mean,
		LowerBound:      lower[horizon-1],
		UpperBound:      upper[horizon-1],
		Confidence:      confidence,
		PercentChange:   (mean[horizon-1] - currentPrice) / currentPrice,
		PredictedData:   forecastPoints(history[len(history)-1].Date, mean, lower, upper),
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":         symbol,
		"horizon":        horizon,
		"iterations":     iterations,
		"confidence":     result.Confidence,
		"percent_change": result.PercentChange,
	}).Debug("Prediction generated")

	return result, nil
}

// confidenceFromMetadata maps evaluation MAPE to a clamped confidence.
func confidenceFromMetadata(meta *contracts.ForecastMetadata) float64 {
	mape := defaultMAPE
	if meta != nil && meta.MAPE > 0 {
		mape = meta.MAPE
	}

	return clamp(1.0-mape, 0.1, 0.95)
}

// forecastPoints assigns forecast days to upcoming weekdays.
func forecastPoints(lastDate time.Time, mean, lower, upper []float64) []contracts.PredictedPoint {
	points := make([]contracts.PredictedPoint, len(mean))
	date := lastDate

	for d := range mean {
		date = nextTradingDay(date)
		points[d] = contracts.PredictedPoint{
			Date:       date,
			Price:      mean[d],
			LowerBound: lower[d],
			UpperBound: upper[d],
		}
	}

	return points
}

// nextTradingDay advances one day, skipping weekends.
func nextTradingDay(date time.Time) time.Time {
	next := date.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
