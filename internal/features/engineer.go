package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// Rolling window lengths and warm-up requirements.
const (
	betaWindow        = 30
	correlationWindow = 20
	volatilityWindow  = 10
	regimeWindow      = 200
	shortMAWindow     = 50
)

// Engineer derives index-relative features for one symbol from its series
// plus a benchmark index series and a volatility-index series.
type Engineer struct {
	logger *logger.Logger
}

// New creates a new feature engineer.
func New(log *logger.Logger) *Engineer {
	return &Engineer{logger: log.WithComponent("features")}
}

// Calculate produces one MarketFeatures entry per date where stock and
// index data both exist and all warm-up windows are satisfied. Dates
// missing any component (including the VIX lookup) are skipped.
func (e *Engineer) Calculate(symbol string, stock, index, volIndex []contracts.PricePoint) ([]contracts.MarketFeatures, error) {
	if len(stock) < 2 {
		return nil, contracts.NewDataError(symbol, "need at least 2 price points, got %d", len(stock))
	}
	if len(index) < 2 {
		return nil, contracts.NewDataError(symbol, "need at least 2 index points, got %d", len(index))
	}

	indexPos := positionsByDate(index)
	vixByDate := closesByDate(volIndex)
	indexCloses := contracts.Closes(index)

	var (
		out           []contracts.MarketFeatures
		stockReturns  []float64
		marketReturns []float64
	)

	for i := 1; i < len(stock); i++ {
		date := dateKey(stock[i].Date)

		pos, ok := indexPos[date]
		if !ok || pos == 0 {
			continue
		}
		prevPos, ok := indexPos[dateKey(stock[i-1].Date)]
		if !ok {
			continue
		}

		stockReturn := dayReturn(stock[i-1].Close, stock[i].Close)
		marketReturn := dayReturn(index[prevPos].Close, index[pos].Close)

		stockReturns = append(stockReturns, stockReturn)
		marketReturns = append(marketReturns, marketReturn)

		// Regime classification needs a full long moving-average window
		// of index history.
		if pos+1 < regimeWindow {
			continue
		}

		vix, ok := vixByDate[date]
		if !ok {
			continue
		}

		ma200 := mean(indexCloses[pos+1-regimeWindow : pos+1])
		ma50 := mean(indexCloses[pos+1-shortMAWindow : pos+1])
		price := index[pos].Close

		out = append(out, contracts.MarketFeatures{
			Date:             stock[i].Date,
			MarketReturn:     marketReturn,
			RelativeReturn:   stockReturn - marketReturn,
			Beta:             rollingBeta(stockReturns, marketReturns),
			IndexCorrelation: rollingCorrelation(stockReturns, marketReturns),
			VIX:              vix,
			VolatilitySpread: volatilitySpread(stockReturns, marketReturns),
			MarketRegime:     classifyRegime(price, ma50, ma200),
			DistanceFromMA:   (price - ma200) / ma200,
		})
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"stock":    len(stock),
		"index":    len(index),
		"features": len(out),
	}).Debug("Calculated market features")

	return out, nil
}

// rollingBeta computes cov(stock, market)/var(market) over the trailing
// window. Defaults to 1 before warm-up or when the window is degenerate.
func rollingBeta(stockReturns, marketReturns []float64) float64 {
	if len(stockReturns) < betaWindow {
		return 1.0
	}

	s := stockReturns[len(stockReturns)-betaWindow:]
	m := marketReturns[len(marketReturns)-betaWindow:]

	variance := stat.Variance(m, nil)
	if variance == 0 || math.IsNaN(variance) {
		return 1.0
	}

	return stat.Covariance(s, m, nil) / variance
}

// rollingCorrelation computes the Pearson correlation of the two return
// series over the trailing window. Defaults to 0 before warm-up.
func rollingCorrelation(stockReturns, marketReturns []float64) float64 {
	if len(stockReturns) < correlationWindow {
		return 0.0
	}

	s := stockReturns[len(stockReturns)-correlationWindow:]
	m := marketReturns[len(marketReturns)-correlationWindow:]

	corr := stat.Correlation(s, m, nil)
	if math.IsNaN(corr) {
		return 0.0
	}

	return corr
}

// volatilitySpread is stdev(stock) - stdev(market) over the trailing
// window, 0 before warm-up.
func volatilitySpread(stockReturns, marketReturns []float64) float64 {
	if len(stockReturns) < volatilityWindow {
		return 0.0
	}

	s := stockReturns[len(stockReturns)-volatilityWindow:]
	m := marketReturns[len(marketReturns)-volatilityWindow:]

	return stat.StdDev(s, nil) - stat.StdDev(m, nil)
}

// classifyRegime maps moving-average relationships to a coarse trend.
func classifyRegime(price, ma50, ma200 float64) contracts.MarketRegime {
	switch {
	case price > ma200 && ma50 > ma200:
		return contracts.RegimeBull
	case price < ma200 && ma50 < ma200:
		return contracts.RegimeBear
	default:
		return contracts.RegimeNeutral
	}
}

func dayReturn(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}

func mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func positionsByDate(points []contracts.PricePoint) map[string]int {
	out := make(map[string]int, len(points))
	for i, p := range points {
		out[dateKey(p.Date)] = i
	}
	return out
}

func closesByDate(points []contracts.PricePoint) map[string]float64 {
	out := make(map[string]float64, len(points))
	for _, p := range points {
		out[dateKey(p.Date)] = p.Close
	}
	return out
}
