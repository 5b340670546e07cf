package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

func newTestPipeline() *Pipeline {
	return New(DefaultConfig(), logger.NewNop())
}

func point(date time.Time, close float64) contracts.PricePoint {
	return contracts.PricePoint{
		Date:     date,
		Open:     close * 0.99,
		High:     close * 1.01,
		Low:      close * 0.98,
		Close:    close,
		AdjClose: close,
		Volume:   1_000_000,
	}
}

// denseSeries builds n consecutive calendar days of clean data.
func denseSeries(n int) []contracts.PricePoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]contracts.PricePoint, 0, n)
	close := 100.0
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			close *= 1.01
		} else {
			close *= 0.995
		}
		points = append(points, point(start.AddDate(0, 0, i), close))
	}
	return points
}

func TestProcess_CleanSeries(t *testing.T) {
	p := newTestPipeline()

	result, err := p.Process("AAPL", denseSeries(120))
	require.NoError(t, err)

	assert.Equal(t, 0, result.GapsDetected)
	assert.Equal(t, 0, result.InterpolatedCount)
	assert.Empty(t, result.InterpolatedIndices)
	assert.Equal(t, 0, result.OutlierCount)
	assert.Equal(t, 0, result.MissingDays)
	assert.Greater(t, result.QualityScore, 90.0)
	assert.Len(t, result.Data, 120)
}

func TestProcess_EmptySeries(t *testing.T) {
	p := newTestPipeline()

	_, err := p.Process("AAPL", nil)
	require.Error(t, err)

	var dataErr *contracts.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "AAPL", dataErr.Symbol)
}

func TestProcess_ThreeDayGapInterpolated(t *testing.T) {
	p := newTestPipeline()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jan4 := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	points := []contracts.PricePoint{
		point(jan1, 100),
		point(jan4, 130),
		point(jan5, 131),
	}

	result, err := p.Process("AAPL", points)
	require.NoError(t, err)

	assert.Equal(t, 1, result.GapsDetected)
	assert.Equal(t, 2, result.InterpolatedCount)
	assert.Equal(t, []int{1, 2}, result.InterpolatedIndices)
	assert.Equal(t, 2, result.MissingDays)
	require.Len(t, result.Data, 5)

	// Synthetic closes strictly between the endpoints.
	for _, idx := range result.InterpolatedIndices {
		c := result.Data[idx].Close
		assert.Greater(t, c, 100.0)
		assert.Less(t, c, 130.0)
	}
	assert.InDelta(t, 110.0, result.Data[1].Close, 1e-9)
	assert.InDelta(t, 120.0, result.Data[2].Close, 1e-9)

	// Dates stay strictly ascending with no duplicates.
	for i := 1; i < len(result.Data); i++ {
		assert.True(t, result.Data[i].Date.After(result.Data[i-1].Date))
	}
}

func TestProcess_LargeGapOnlyCounted(t *testing.T) {
	p := newTestPipeline()

	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []contracts.PricePoint{
		point(jan1, 100),
		point(jan1.AddDate(0, 0, 10), 105), // 10-day gap, above the limit
		point(jan1.AddDate(0, 0, 11), 106),
	}

	result, err := p.Process("AAPL", points)
	require.NoError(t, err)

	assert.Equal(t, 1, result.GapsDetected)
	assert.Equal(t, 0, result.InterpolatedCount)
	assert.Equal(t, 9, result.MissingDays)
	assert.Len(t, result.Data, 3)
}

func TestProcess_OutlierFlagged(t *testing.T) {
	p := newTestPipeline()

	series := denseSeries(40)
	// Spike the next-to-last close well past three sigmas of the
	// trailing return distribution.
	spikeIdx := len(series) - 2
	series[spikeIdx].Close = series[spikeIdx-1].Close * 1.30

	result, err := p.Process("AAPL", series)
	require.NoError(t, err)

	assert.Contains(t, result.OutlierIndices, spikeIdx)
	// Flagged, not removed.
	assert.Len(t, result.Data, len(series))
}

func TestIsAcceptable_Monotonic(t *testing.T) {
	tests := []struct {
		name         string
		score        float64
		interpolated float64
		want         bool
	}{
		{"good series", 85.0, 0.02, true},
		{"boundary score", 60.0, 0.10, true},
		{"score below threshold", 59.9, 0.02, false},
		{"too much interpolation", 95.0, 0.101, false},
		{"both bad", 40.0, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &contracts.DataQualityResult{
				QualityScore:        tt.score,
				InterpolatedPercent: tt.interpolated,
			}
			assert.Equal(t, tt.want, IsAcceptable(result, 60))
		})
	}
}

func TestAcceptableStats_MatchesIsAcceptable(t *testing.T) {
	tests := []struct {
		name         string
		score        float64
		interpolated float64
		want         bool
	}{
		{"both within bounds", 85.0, 0.02, true},
		{"high score but over-interpolated", 95.0, 0.15, false},
		{"low interpolation but low score", 50.0, 0.01, false},
		{"both at boundary", 60.0, 0.10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AcceptableStats(tt.interpolated, tt.score, 60)
			assert.Equal(t, tt.want, got)

			result := &contracts.DataQualityResult{
				QualityScore:        tt.score,
				InterpolatedPercent: tt.interpolated,
			}
			assert.Equal(t, got, IsAcceptable(result, 60))
		})
	}
}

func TestScore_OneDecimal(t *testing.T) {
	p := newTestPipeline()

	result, err := p.Process("AAPL", denseSeries(50))
	require.NoError(t, err)

	scaled := result.QualityScore * 10
	assert.InDelta(t, scaled, float64(int64(scaled+0.5)), 1e-6)
	assert.GreaterOrEqual(t, result.QualityScore, 0.0)
	assert.LessOrEqual(t, result.QualityScore, 100.0)
}
