package quality

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// Pipeline repairs and scores one symbol's raw daily price series.
// Gap repair and outlier flagging happen only here.
type Pipeline struct {
	config Config
	logger *logger.Logger
}

// Config holds the pipeline's tunable constants.
type Config struct {
	// MaxGapDays is the largest gap (in calendar days beyond the first)
	// that still gets interpolated. Gaps above it are only counted.
	MaxGapDays int

	// OutlierWindow is the trailing return window for z-score flagging.
	OutlierWindow int

	// OutlierSigma is the deviation multiple that flags an outlier.
	OutlierSigma float64
}

// DefaultConfig returns the standard pipeline constants.
func DefaultConfig() Config {
	return Config{
		MaxGapDays:    3,
		OutlierWindow: 20,
		OutlierSigma:  3.0,
	}
}

// New creates a new quality pipeline.
func New(config Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		config: config,
		logger: log.WithComponent("quality"),
	}
}

// Process repairs gaps, flags outliers and scores the series. The input
// must be ascending by date with one point per calendar date.
func (p *Pipeline) Process(symbol string, points []contracts.PricePoint) (*contracts.DataQualityResult, error) {
	if len(points) == 0 {
		return nil, contracts.NewDataError(symbol, "empty price series")
	}

	gaps := p.detectGaps(points)

	repaired, interpolated, largeGaps, missingDays := p.interpolate(points, gaps)

	outliers := p.flagOutliers(repaired)

	interpolatedPercent := 0.0
	if len(repaired) > 0 {
		interpolatedPercent = float64(len(interpolated)) / float64(len(repaired))
	}

	result := &contracts.DataQualityResult{
		Data:                repaired,
		GapsDetected:        len(gaps),
		InterpolatedCount:   len(interpolated),
		InterpolatedIndices: interpolated,
		InterpolatedPercent: interpolatedPercent,
		OutlierCount:        len(outliers),
		OutlierIndices:      outliers,
		MissingDays:         missingDays,
		QualityScore:        p.score(len(points), interpolatedPercent, largeGaps, repaired),
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":        symbol,
		"points":        len(points),
		"gaps":          result.GapsDetected,
		"interpolated":  result.InterpolatedCount,
		"outliers":      result.OutlierCount,
		"quality_score": result.QualityScore,
	}).Debug("Processed price series")

	return result, nil
}

// IsAcceptable gates training and backtesting on series quality. Pure and
// monotonic in (qualityScore, interpolatedPercent).
func IsAcceptable(result *contracts.DataQualityResult, minScore float64) bool {
	return AcceptableStats(result.InterpolatedPercent, result.QualityScore, minScore)
}

// AcceptableStats is the acceptability gate over stored summary numbers,
// for callers that hold a persisted assessment instead of the full
// DataQualityResult. Both conditions must hold: interpolation at most
// 10% and score at or above the minimum.
func AcceptableStats(interpolatedPercent, qualityScore, minScore float64) bool {
	return interpolatedPercent <= 0.10 && qualityScore >= minScore
}

// detectGaps scans consecutive points for calendar day deltas above one.
func (p *Pipeline) detectGaps(points []contracts.PricePoint) []contracts.Gap {
	var gaps []contracts.Gap

	for i := 1; i < len(points); i++ {
		delta := calendarDays(points[i-1].Date, points[i].Date)
		if delta > 1 {
			gaps = append(gaps, contracts.Gap{
				StartIndex: i - 1,
				EndIndex:   i,
				GapDays:    delta,
			})
		}
	}

	return gaps
}

// interpolate fills small gaps with per-field linear interpolation at
// evenly spaced synthetic dates. Returns the repaired series, the indices
// of interpolated points (ascending), the count of gaps too large to fill
// and the total missing days across all gaps.
func (p *Pipeline) interpolate(points []contracts.PricePoint, gaps []contracts.Gap) ([]contracts.PricePoint, []int, int, int) {
	fillable := make(map[int]contracts.Gap) // keyed by StartIndex
	largeGaps := 0
	missingDays := 0

	for _, g := range gaps {
		missingDays += g.GapDays - 1
		if g.GapDays <= p.config.MaxGapDays+1 {
			fillable[g.StartIndex] = g
		} else {
			largeGaps++
		}
	}

	repaired := make([]contracts.PricePoint, 0, len(points)+missingDays)
	var interpolated []int

	for i, point := range points {
		repaired = append(repaired, point)

		g, ok := fillable[i]
		if !ok {
			continue
		}

		prev := points[g.StartIndex]
		next := points[g.EndIndex]
		for k := 1; k < g.GapDays; k++ {
			frac := float64(k) / float64(g.GapDays)
			synthetic := contracts.PricePoint{
				Date:     prev.Date.AddDate(0, 0, k),
				Open:     lerp(prev.Open, next.Open, frac),
				High:     lerp(prev.High, next.High, frac),
				Low:      lerp(prev.Low, next.Low, frac),
				Close:    lerp(prev.Close, next.Close, frac),
				AdjClose: lerp(prev.AdjClose, next.AdjClose, frac),
				Volume:   int64(math.Round(lerp(float64(prev.Volume), float64(next.Volume), frac))),
			}
			interpolated = append(interpolated, len(repaired))
			repaired = append(repaired, synthetic)
		}
	}

	sort.Ints(interpolated)

	return repaired, interpolated, largeGaps, missingDays
}

// flagOutliers marks points whose day-over-day return deviates from the
// trailing window's mean by more than OutlierSigma standard deviations.
// Outliers are recorded, never removed.
func (p *Pipeline) flagOutliers(points []contracts.PricePoint) []int {
	returns := contracts.DailyReturns(points)
	if len(returns) <= p.config.OutlierWindow {
		return nil
	}

	var outliers []int
	for i := p.config.OutlierWindow; i < len(returns); i++ {
		window := returns[i-p.config.OutlierWindow : i]
		mean := stat.Mean(window, nil)
		std := stat.PopStdDev(window, nil)
		if std == 0 {
			continue
		}

		if math.Abs(returns[i]-mean) > p.config.OutlierSigma*std {
			// returns[i] belongs to point i+1
			outliers = append(outliers, i+1)
		}
	}

	return outliers
}

// score computes the 0-100 quality score, rounded to one decimal.
// Weighted sum: completeness 0.4, gap penalty 0.3, density 0.3.
func (p *Pipeline) score(rawCount int, interpolatedPercent float64, largeGaps int, repaired []contracts.PricePoint) float64 {
	if len(repaired) == 0 {
		return 0
	}

	completeness := 1.0 - interpolatedPercent

	gapPenalty := math.Max(0, 1.0-float64(largeGaps)/10.0)

	first := repaired[0].Date
	last := repaired[len(repaired)-1].Date
	totalCalendarDays := calendarDays(first, last) + 1
	expectedTradingDays := float64(totalCalendarDays) * 5.0 / 7.0

	density := 1.0
	if expectedTradingDays > 0 {
		density = math.Min(1.0, float64(rawCount)/expectedTradingDays)
	}

	score := (completeness*0.4 + gapPenalty*0.3 + density*0.3) * 100

	return math.Round(score*10) / 10
}

// lerp linearly interpolates between a and b.
func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

// calendarDays returns the whole calendar days between two dates.
func calendarDays(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
