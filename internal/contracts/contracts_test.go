package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyReturns(t *testing.T) {
	points := []PricePoint{
		{Date: day(1), Close: 100},
		{Date: day(2), Close: 110},
		{Date: day(3), Close: 99},
	}

	returns := DailyReturns(points)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestDailyReturns_TooShort(t *testing.T) {
	assert.Nil(t, DailyReturns(nil))
	assert.Nil(t, DailyReturns([]PricePoint{{Close: 100}}))
}

func TestFeaturesUpTo(t *testing.T) {
	features := []MarketFeatures{
		{Date: day(1)},
		{Date: day(2)},
		{Date: day(5)},
	}

	got := FeaturesUpTo(features, day(2))
	require.Len(t, got, 2)
	assert.Equal(t, day(2), got[1].Date)

	assert.Len(t, FeaturesUpTo(features, day(10)), 3)
	assert.Empty(t, FeaturesUpTo(features, day(0).AddDate(0, 0, -1)))
}

func TestErrorTaxonomy(t *testing.T) {
	var dataErr *DataError
	err := error(NewDataError("AAPL", "only %d points", 3))
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, "AAPL", dataErr.Symbol)
	assert.Contains(t, err.Error(), "AAPL")
	assert.Contains(t, err.Error(), "only 3 points")

	var modelErr *ModelError
	require.True(t, errors.As(error(NewModelError("MSFT", "not trained")), &modelErr))
	assert.Equal(t, "MSFT", modelErr.Symbol)

	var predErr *PredictionError
	require.True(t, errors.As(error(NewPredictionError("GOOG", "insufficient data")), &predErr))
	assert.Contains(t, predErr.Error(), "insufficient data")
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(day(3), day(3).Add(5*time.Hour)))
	assert.False(t, SameDay(day(3), day(4)))
}
