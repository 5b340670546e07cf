package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes []float64, start time.Time) []contracts.PricePoint {
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{
			Date:     start.AddDate(0, 0, i),
			Open:     c,
			High:     c * 1.01,
			Low:      c * 0.99,
			Close:    c,
			AdjClose: c,
			Volume:   500_000,
		}
	}
	return points
}

// trendCloses builds n closes multiplying by step each day.
func trendCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	c := start
	for i := range closes {
		closes[i] = c
		c *= step
	}
	return closes
}

func constantVIX(n int, start time.Time, level float64) []contracts.PricePoint {
	points := make([]contracts.PricePoint, n)
	for i := range points {
		points[i] = contracts.PricePoint{
			Date:  start.AddDate(0, 0, i),
			Close: level,
		}
	}
	return points
}

func TestCalculate_BullRegimeAndFullWarmup(t *testing.T) {
	e := New(logger.NewNop())

	n := 260
	indexCloses := trendCloses(n, 4000, 1.002)
	stockCloses := make([]float64, n)
	for i, c := range indexCloses {
		stockCloses[i] = c * 0.5 // identical return series
	}

	index := seriesFromCloses(indexCloses, testStart)
	stock := seriesFromCloses(stockCloses, testStart)
	vix := constantVIX(n, testStart, 17.5)

	features, err := e.Calculate("AAPL", stock, index, vix)
	require.NoError(t, err)

	// Emission starts once the index has a full 200-day window.
	require.Len(t, features, n-200+1)

	for _, f := range features {
		assert.Equal(t, contracts.RegimeBull, f.MarketRegime)
		assert.InDelta(t, 17.5, f.VIX, 1e-9)
		assert.Greater(t, f.DistanceFromMA, 0.0)

		// Identical return series: beta 1, perfect correlation, zero
		// relative return and volatility spread.
		assert.InDelta(t, 1.0, f.Beta, 1e-9)
		assert.InDelta(t, 1.0, f.IndexCorrelation, 1e-9)
		assert.InDelta(t, 0.0, f.RelativeReturn, 1e-12)
		assert.InDelta(t, 0.0, f.VolatilitySpread, 1e-12)
	}
}

func TestCalculate_BearRegime(t *testing.T) {
	e := New(logger.NewNop())

	n := 230
	indexCloses := trendCloses(n, 4000, 0.998)
	index := seriesFromCloses(indexCloses, testStart)
	stock := seriesFromCloses(trendCloses(n, 50, 0.999), testStart)
	vix := constantVIX(n, testStart, 28)

	features, err := e.Calculate("AAPL", stock, index, vix)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	for _, f := range features {
		assert.Equal(t, contracts.RegimeBear, f.MarketRegime)
		assert.Less(t, f.DistanceFromMA, 0.0)
	}
}

func TestCalculate_MissingVIXSkipsDate(t *testing.T) {
	e := New(logger.NewNop())

	n := 210
	index := seriesFromCloses(trendCloses(n, 4000, 1.001), testStart)
	stock := seriesFromCloses(trendCloses(n, 100, 1.001), testStart)

	// Drop the VIX point for one post-warm-up date.
	vix := constantVIX(n, testStart, 20)
	missing := testStart.AddDate(0, 0, 205)
	filtered := vix[:0]
	for _, p := range vix {
		if !contracts.SameDay(p.Date, missing) {
			filtered = append(filtered, p)
		}
	}

	features, err := e.Calculate("AAPL", stock, index, filtered)
	require.NoError(t, err)

	for _, f := range features {
		assert.False(t, contracts.SameDay(f.Date, missing), "date without VIX must be skipped")
	}
	assert.Len(t, features, n-200+1-1)
}

func TestCalculate_DefaultsBeforeWarmup(t *testing.T) {
	e := New(logger.NewNop())

	n := 260
	index := seriesFromCloses(trendCloses(n, 4000, 1.002), testStart)
	vix := constantVIX(n, testStart, 15)

	// Stock lists late: only the last 15 days overlap the index.
	stockStart := testStart.AddDate(0, 0, n-15)
	stock := seriesFromCloses(trendCloses(15, 100, 1.003), stockStart)

	features, err := e.Calculate("AAPL", stock, index, vix)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	first := features[0]
	assert.InDelta(t, 1.0, first.Beta, 1e-9, "beta defaults to 1 before warm-up")
	assert.InDelta(t, 0.0, first.IndexCorrelation, 1e-9, "correlation defaults to 0 before warm-up")
	assert.InDelta(t, 0.0, first.VolatilitySpread, 1e-9, "volatility spread defaults to 0 before warm-up")
}

func TestCalculate_InsufficientData(t *testing.T) {
	e := New(logger.NewNop())

	stock := seriesFromCloses([]float64{100}, testStart)
	index := seriesFromCloses(trendCloses(10, 4000, 1.001), testStart)

	_, err := e.Calculate("AAPL", stock, index, nil)
	require.Error(t, err)

	var dataErr *contracts.DataError
	assert.ErrorAs(t, err, &dataErr)
}
