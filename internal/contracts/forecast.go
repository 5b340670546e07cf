package contracts

import "context"

// ForecastMetrics summarizes one train or evaluate pass of a Forecaster.
// Owned by the forecaster after training; read-only downstream.
type ForecastMetrics struct {
	Loss       float64 `json:"loss"`
	MAPE       float64 `json:"mape,omitempty"`
	IsValid    bool    `json:"is_valid"`
	DataPoints int     `json:"data_points"`
	WindowSize int     `json:"window_size"`
}

// ForecastMetadata describes a trained forecaster instance.
type ForecastMetadata struct {
	Symbol       string             `json:"symbol"`
	Architecture string             `json:"architecture"`
	Ensemble     bool               `json:"ensemble"`
	Loss         float64            `json:"loss"`
	MAPE         float64            `json:"mape"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	DataPoints   int                `json:"data_points"`
	WindowSize   int                `json:"window_size"`
}

// PredictOptions controls a single predict call.
type PredictOptions struct {
	// Training leaves the model's stochastic regularization active during
	// inference (Monte-Carlo dropout); repeated calls then sample a
	// predictive distribution instead of returning the mean path.
	Training bool
}

// Forecaster is the contract every forecasting backend satisfies, whether
// a single model or a weighted ensemble. The quantitative core consumes
// models only through this interface.
type Forecaster interface {
	// Train fits the model on the series and returns training metrics.
	Train(ctx context.Context, series []PricePoint, features []MarketFeatures) (*ForecastMetrics, error)

	// Predict returns a horizon-length price path continuing the series.
	Predict(ctx context.Context, series []PricePoint, horizon int, features []MarketFeatures, opts PredictOptions) ([]float64, error)

	// Evaluate scores the model on the series and returns metrics
	// including MAPE.
	Evaluate(ctx context.Context, series []PricePoint, features []MarketFeatures) (*ForecastMetrics, error)

	// IsTrained reports whether Train has completed successfully.
	IsTrained() bool

	// Metadata returns a description of the trained instance, or nil
	// before training.
	Metadata() *ForecastMetadata
}
