package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/internal/predict"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// trendForecaster predicts that every future day moves by a fixed
// daily factor. Deterministic regardless of PredictOptions, so the
// uncertainty sampling collapses to a point forecast.
type trendForecaster struct {
	dailyFactor float64
	trained     bool
	mape        float64
}

func (f *trendForecaster) Train(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	f.trained = true
	return &contracts.ForecastMetrics{Loss: 0.01, MAPE: f.mape, IsValid: true}, nil
}

func (f *trendForecaster) Predict(ctx context.Context, series []contracts.PricePoint, horizon int, features []contracts.MarketFeatures, opts contracts.PredictOptions) ([]float64, error) {
	price := series[len(series)-1].Close
	path := make([]float64, horizon)
	for i := range path {
		price *= f.dailyFactor
		path[i] = price
	}
	return path, nil
}

func (f *trendForecaster) Evaluate(ctx context.Context, series []contracts.PricePoint, features []contracts.MarketFeatures) (*contracts.ForecastMetrics, error) {
	return &contracts.ForecastMetrics{Loss: 0.01, MAPE: f.mape, IsValid: true}, nil
}

func (f *trendForecaster) IsTrained() bool { return f.trained }

func (f *trendForecaster) Metadata() *contracts.ForecastMetadata {
	return &contracts.ForecastMetadata{Symbol: "TEST", Architecture: "trend", MAPE: f.mape}
}

func makeHistory(n int, start, step float64) []contracts.PricePoint {
	points := make([]contracts.PricePoint, n)
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	price := start
	for i := range points {
		points[i] = contracts.PricePoint{
			Date:   date,
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
		date = date.AddDate(0, 0, 1)
		price += step
	}
	return points
}

func newTestEngine(windowSize int) *Engine {
	log := logger.NewNop()
	predictor := predict.New(predict.Config{WindowSize: windowSize, UncertaintyIterations: 3}, log)
	return New(Config{
		WindowSize:      windowSize,
		Horizon:         3,
		InitialCapital:  10_000,
		TransactionCost: 0.001,
		Thresholds: contracts.SignalThresholds{
			BuyThreshold:  0.02,
			SellThreshold: -0.02,
			MinConfidence: 0.6,
		},
	}, predictor, log)
}

func TestRun_BullishForecastBuysAndHolds(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: true, mape: 0.1}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.NoError(t, err)

	require.NotEmpty(t, result.Trades)
	assert.Equal(t, contracts.ActionBuy, result.Trades[0].Action)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "TEST", result.Symbol)
	assert.Len(t, result.EquityCurve, 21)

	// Prices rose throughout, so a fully invested portfolio ends above
	// its starting capital.
	assert.Greater(t, result.FinalValue, result.InitialValue)
	assert.Greater(t, result.TotalReturn, 0.0)
}

func TestRun_TradesExecuteAtNextDayOpen(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: true, mape: 0.1}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trades)

	opensByDate := make(map[time.Time]float64, len(history))
	for _, p := range history {
		opensByDate[p.Date] = p.Open
	}
	for _, trade := range result.Trades {
		open, ok := opensByDate[trade.Date]
		require.True(t, ok, "trade dated outside the price history")
		assert.Equal(t, open, trade.Price, "trade did not execute at the day's open")
	}

	// The signal forms on day i, so the earliest possible execution is
	// the second simulated day.
	startIndex := len(history) - 20 - 1
	assert.True(t, result.Trades[0].Date.After(history[startIndex].Date))
}

func TestRun_BearishForecastNeverBuys(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 0.9, trained: true, mape: 0.1}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.InDelta(t, 10_000.0, result.FinalValue, 1e-9)
	assert.Equal(t, 0.0, result.TotalReturn)
	assert.Equal(t, 0.0, result.WinRate)
}

func TestRun_LowConfidenceHolds(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	// MAPE 0.5 gives confidence 0.5, under the 0.6 minimum.
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: true, mape: 0.5}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestRun_BenchmarkAndAlpha(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 0.9, trained: true, mape: 0.1}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.NoError(t, err)

	startIndex := len(history) - 20 - 1
	wantBenchmark := (history[len(history)-1].Close - history[startIndex].Close) / history[startIndex].Close
	assert.InDelta(t, wantBenchmark, result.BenchmarkReturn, 1e-9)
	assert.InDelta(t, result.TotalReturn-wantBenchmark, result.Alpha, 1e-9)
}

func TestRun_DaysLongerThanHistoryUsesFullSeries(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(15, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.0, trained: true, mape: 0.1}

	result, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 500)
	require.NoError(t, err)
	assert.Len(t, result.EquityCurve, 15)
}

func TestRun_UntrainedForecaster(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: false}

	_, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.Error(t, err)
	var modelErr *contracts.ModelError
	assert.ErrorAs(t, err, &modelErr)
}

func TestRun_InsufficientData(t *testing.T) {
	engine := newTestEngine(10)
	history := makeHistory(8, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: true}

	_, err := engine.Run(context.Background(), "TEST", forecaster, history, nil, 20)
	require.Error(t, err)
	var dataErr *contracts.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestRun_Cancellation(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.05, trained: true, mape: 0.1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, "TEST", forecaster, history, nil, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// lastDayCancelForecaster behaves like trendForecaster until the
// simulation reaches the final day of the history, then cancels the
// run's context mid-prediction and reports the cancellation.
type lastDayCancelForecaster struct {
	trendForecaster
	finalDate time.Time
	cancel    context.CancelFunc
}

func (f *lastDayCancelForecaster) Predict(ctx context.Context, series []contracts.PricePoint, horizon int, features []contracts.MarketFeatures, opts contracts.PredictOptions) ([]float64, error) {
	if series[len(series)-1].Date.Equal(f.finalDate) {
		f.cancel()
		return nil, ctx.Err()
	}
	return f.trendForecaster.Predict(ctx, series, horizon, features, opts)
}

func TestRun_CancellationOnFinalDayAbortsRun(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	forecaster := &lastDayCancelForecaster{
		trendForecaster: trendForecaster{dailyFactor: 1.0, trained: true, mape: 0.1},
		finalDate:       history[len(history)-1].Date,
		cancel:          cancel,
	}

	// The final day has no following iteration, so the loop's own
	// ctx check never sees this cancellation. It must surface from
	// the prediction instead of degrading to a HOLD signal.
	result, err := engine.Run(ctx, "TEST", forecaster, history, nil, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestRunWithProgress_ReportsEveryDay(t *testing.T) {
	engine := newTestEngine(5)
	history := makeHistory(40, 100, 1)
	forecaster := &trendForecaster{dailyFactor: 1.0, trained: true, mape: 0.1}

	var calls []int
	var lastTotal int
	_, err := engine.RunWithProgress(context.Background(), "TEST", forecaster, history, nil, 10, func(current, total int) {
		calls = append(calls, current)
		lastTotal = total
	})
	require.NoError(t, err)

	require.Len(t, calls, 11)
	assert.Equal(t, 1, calls[0])
	assert.Equal(t, 11, calls[len(calls)-1])
	assert.Equal(t, 11, lastTotal)
}
