package ensemble

import (
	"context"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// minLoss floors variant losses so inverse weighting never divides by zero.
const minLoss = 1e-6

// Combiner aggregates architecturally distinct forecaster variants trained
// on identical input, weighting each by inverse validation loss. It owns
// its variants and their weight vector exclusively; weights always sum to
// 1 and are recomputed only at train time. Combiner satisfies the same
// Forecaster contract as a single model.
type Combiner struct {
	symbol   string
	variants []contracts.Forecaster
	weights  []float64
	trained  bool
	logger   *logger.Logger
}

var _ contracts.Forecaster = (*Combiner)(nil)

// New creates a combiner over the given variants. The variant set is
// fixed for the combiner's lifetime.
func New(symbol string, variants []contracts.Forecaster, log *logger.Logger) (*Combiner, error) {
	if len(variants) == 0 {
		return nil, contracts.NewModelError(symbol, "ensemble needs at least one variant")
	}

	return &Combiner{
		symbol:   symbol,
		variants: variants,
		logger:   log.WithComponent("ensemble"),
	}, nil
}

// Train trains every variant on the identical input and recomputes the
// inverse-loss weight vector. Returns the weight-weighted aggregate
// metrics.
func (c *Combiner) Train(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	losses := make([]float64, len(c.variants))
	metrics := make([]*contracts.ForecastMetrics, len(c.variants))

	// Variants are independent with no shared state; training them is
	// sequential here but safe to parallelize.
	for i, v := range c.variants {
		m, err := v.Train(ctx, series, features)
		if err != nil {
			return nil, err
		}
		losses[i] = m.Loss
		metrics[i] = m
	}

	c.weights = inverseLossWeights(losses)
	c.trained = true

	aggregate := &contracts.ForecastMetrics{
		IsValid:    true,
		DataPoints: metrics[0].DataPoints,
		WindowSize: metrics[0].WindowSize,
	}
	for i, m := range metrics {
		aggregate.Loss += c.weights[i] * m.Loss
		aggregate.MAPE += c.weights[i] * m.MAPE
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":   c.symbol,
		"variants": len(c.variants),
		"weights":  c.weights,
		"loss":     aggregate.Loss,
	}).Debug("Ensemble trained")

	return aggregate, nil
}

// Predict gathers each variant's horizon-length forecast and returns, per
// day, the weight-weighted sum across variants.
func (c *Combiner) Predict(ctx context.Context, series []contracts.PricePoint, horizon int, features []contracts.MarketFeatures, opts contracts.PredictOptions) ([]float64, error) {
	if !c.trained {
		return nil, contracts.NewModelError(c.symbol, "ensemble not trained")
	}

	combined := make([]float64, horizon)
	for i, v := range c.variants {
		path, err := v.Predict(ctx, series, horizon, features, opts)
		if err != nil {
			return nil, err
		}
		if len(path) != horizon {
			return nil, contracts.NewPredictionError(c.symbol, "variant returned %d days, want %d", len(path), horizon)
		}

		for d, price := range path {
			combined[d] += c.weights[i] * price
		}
	}

	return combined, nil
}

// Evaluate returns the weight-weighted evaluation metrics across variants.
func (c *Combiner) Evaluate(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	if !c.trained {
		return nil, contracts.NewModelError(c.symbol, "ensemble not trained")
	}

	aggregate := &contracts.ForecastMetrics{IsValid: true}
	for i, v := range c.variants {
		m, err := v.Evaluate(ctx, series, features)
		if err != nil {
			return nil, err
		}
		aggregate.Loss += c.weights[i] * m.Loss
		aggregate.MAPE += c.weights[i] * m.MAPE
		aggregate.DataPoints = m.DataPoints
		aggregate.WindowSize = m.WindowSize
	}

	return aggregate, nil
}

// IsTrained reports whether Train has completed successfully.
func (c *Combiner) IsTrained() bool {
	return c.trained
}

// Metadata returns the best (highest-weight) variant's metadata tagged as
// an ensemble, or nil before training.
func (c *Combiner) Metadata() *contracts.ForecastMetadata {
	if !c.trained {
		return nil
	}

	best := 0
	for i := 1; i < len(c.weights); i++ {
		if c.weights[i] > c.weights[best] {
			best = i
		}
	}

	meta := c.variants[best].Metadata()
	if meta == nil {
		return nil
	}

	tagged := *meta
	tagged.Ensemble = true
	return &tagged
}

// Weights returns a copy of the current weight vector.
func (c *Combiner) Weights() []float64 {
	return append([]float64(nil), c.weights...)
}

// inverseLossWeights assigns each variant influence proportional to
// 1/max(loss, minLoss), normalized to sum to 1.
func inverseLossWeights(losses []float64) []float64 {
	weights := make([]float64, len(losses))

	var sum float64
	for i, loss := range losses {
		if loss < minLoss {
			loss = minLoss
		}
		weights[i] = 1.0 / loss
		sum += weights[i]
	}

	for i := range weights {
		weights[i] /= sum
	}

	return weights
}
