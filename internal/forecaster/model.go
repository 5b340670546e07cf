package forecaster

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// Supported architecture variants.
const (
	ArchDrift    = "drift"    // constant drift from trailing log returns
	ArchMeanRev  = "meanrev"  // reversion toward the trailing moving average
	ArchMomentum = "momentum" // short-window momentum continuation
)

// Config holds model hyperparameters.
type Config struct {
	WindowSize int
	// Seed fixes the stochastic path for reproducible runs; 0 derives a
	// seed from the clock.
	Seed int64
}

// Model is the baseline stochastic forecaster. Training fits drift and
// volatility on windowed log returns; prediction walks the price forward.
// With PredictOptions.Training set, Gaussian noise scaled by the fitted
// volatility stays active during inference, so repeated calls sample a
// predictive distribution.
type Model struct {
	symbol string
	arch   string
	config Config
	rng    *rand.Rand
	logger *logger.Logger

	trained bool
	drift   float64
	vol     float64
	metrics *contracts.ForecastMetrics
	mape    float64
	mae     float64
}

var _ contracts.Forecaster = (*Model)(nil)

// New creates an untrained model for one symbol and architecture.
func New(symbol, arch string, config Config, log *logger.Logger) *Model {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Model{
		symbol: symbol,
		arch:   arch,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		logger: log.WithComponent("forecaster").WithField("architecture", arch),
	}
}

// Train fits drift and volatility on the series and scores the fit with a
// one-step-ahead evaluation over the holdout tail.
func (m *Model) Train(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	minPoints := m.config.WindowSize + 2
	if len(series) < minPoints {
		return nil, contracts.NewDataError(m.symbol, "insufficient data: need at least %d points, got %d", minPoints, len(series))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logReturns := logReturns(series)
	window := tail(logReturns, m.config.WindowSize)

	m.drift = stat.Mean(window, nil)
	m.vol = stat.PopStdDev(window, nil)

	// A regime tilt from the market features: trend-following drift
	// adjustment scaled by distance from the long moving average.
	if tilt, ok := regimeTilt(features); ok {
		m.drift += tilt
	}

	m.trained = true

	metrics, err := m.Evaluate(ctx, series, features)
	if err != nil {
		m.trained = false
		return nil, err
	}
	m.metrics = metrics

	m.logger.WithFields(map[string]interface{}{
		"symbol": m.symbol,
		"points": len(series),
		"drift":  m.drift,
		"vol":    m.vol,
		"loss":   metrics.Loss,
		"mape":   metrics.MAPE,
	}).Debug("Model trained")

	return metrics, nil
}

// Predict returns a horizon-length price path continuing the series. The
// deterministic mean path is returned unless opts.Training keeps the
// stochastic term active.
func (m *Model) Predict(ctx context.Context, series []contracts.PricePoint, horizon int, features []contracts.MarketFeatures, opts contracts.PredictOptions) ([]float64, error) {
	if !m.trained {
		return nil, contracts.NewModelError(m.symbol, "model not trained")
	}
	if len(series) == 0 {
		return nil, contracts.NewPredictionError(m.symbol, "empty price series")
	}
	if horizon < 1 {
		return nil, contracts.NewPredictionError(m.symbol, "horizon must be positive, got %d", horizon)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Rolling close window seeds the per-architecture expected return and
	// is extended with each predicted price.
	window := tailCloses(series, m.config.WindowSize)
	price := series[len(series)-1].Close

	path := make([]float64, horizon)
	for d := 0; d < horizon; d++ {
		r := m.expectedLogReturn(price, window)
		if opts.Training {
			r += m.vol * m.rng.NormFloat64()
		}

		price *= math.Exp(r)
		path[d] = price

		window = append(window[1:], price)
	}

	return path, nil
}

// Evaluate scores the model by one-step-ahead prediction over the holdout
// tail of the series.
func (m *Model) Evaluate(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	if !m.trained {
		return nil, contracts.NewModelError(m.symbol, "model not trained")
	}

	holdout := len(series) / 5
	if holdout < 1 {
		holdout = 1
	}
	start := len(series) - holdout
	if start < m.config.WindowSize+1 {
		start = m.config.WindowSize + 1
	}
	if start >= len(series) {
		start = len(series) - 1
	}

	var sumSqErr, sumAbsPct, sumAbs float64
	samples := 0

	for i := start; i < len(series); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window := tailCloses(series[:i], m.config.WindowSize)
		prev := series[i-1].Close
		predicted := prev * math.Exp(m.expectedLogReturn(prev, window))
		actual := series[i].Close

		pctErr := (predicted - actual) / actual
		sumSqErr += pctErr * pctErr
		sumAbsPct += math.Abs(pctErr)
		sumAbs += math.Abs(predicted - actual)
		samples++
	}

	m.mape = sumAbsPct / float64(samples)
	m.mae = sumAbs / float64(samples)

	return &contracts.ForecastMetrics{
		Loss:       sumSqErr / float64(samples),
		MAPE:       m.mape,
		IsValid:    true,
		DataPoints: len(series),
		WindowSize: m.config.WindowSize,
	}, nil
}

// IsTrained reports whether Train has completed successfully.
func (m *Model) IsTrained() bool {
	return m.trained
}

// Metadata returns a description of the trained instance, or nil before
// training.
func (m *Model) Metadata() *contracts.ForecastMetadata {
	if !m.trained || m.metrics == nil {
		return nil
	}

	return &contracts.ForecastMetadata{
		Symbol:       m.symbol,
		Architecture: m.arch,
		Ensemble:     false,
		Loss:         m.metrics.Loss,
		MAPE:         m.mape,
		Metrics: map[string]float64{
			"meanAbsoluteError": m.mae,
			"drift":             m.drift,
			"volatility":        m.vol,
		},
		DataPoints: m.metrics.DataPoints,
		WindowSize: m.config.WindowSize,
	}
}

// expectedLogReturn is the per-architecture deterministic return term.
func (m *Model) expectedLogReturn(price float64, window []float64) float64 {
	switch m.arch {
	case ArchMeanRev:
		ma := stat.Mean(window, nil)
		if price <= 0 || ma <= 0 {
			return m.drift
		}
		// Partial reversion toward the window average.
		return m.drift + 0.1*math.Log(ma/price)
	case ArchMomentum:
		short := window
		if n := len(window) / 3; n >= 2 {
			short = window[len(window)-n:]
		}
		if len(short) < 2 || short[0] <= 0 {
			return m.drift
		}
		recent := math.Log(short[len(short)-1]/short[0]) / float64(len(short)-1)
		return 0.5*m.drift + 0.5*recent
	default:
		return m.drift
	}
}

// regimeTilt derives a small drift adjustment from the latest regime.
func regimeTilt(features []contracts.MarketFeatures) (float64, bool) {
	if len(features) == 0 {
		return 0, false
	}

	latest := features[len(features)-1]
	switch latest.MarketRegime {
	case contracts.RegimeBull:
		return 0.05 * math.Abs(latest.DistanceFromMA) / 252, true
	case contracts.RegimeBear:
		return -0.05 * math.Abs(latest.DistanceFromMA) / 252, true
	default:
		return 0, false
	}
}

func logReturns(series []contracts.PricePoint) []float64 {
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev <= 0 || series[i].Close <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(series[i].Close/prev))
	}
	return out
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func tailCloses(series []contracts.PricePoint, n int) []float64 {
	closes := contracts.Closes(series)
	out := tail(closes, n)
	// Copy so prediction can extend the window without aliasing.
	return append([]float64(nil), out...)
}
