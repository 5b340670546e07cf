// Package brain coordinates the full evaluation pipeline: provider sync,
// quality gating, feature engineering, ensemble training, prediction and
// backtesting. The CLI, the HTTP API and the scheduler all drive this
// orchestrator instead of wiring components themselves.
package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoretti/sibyl/internal/backtest"
	"github.com/jmoretti/sibyl/internal/contracts"
	"github.com/jmoretti/sibyl/internal/data"
	"github.com/jmoretti/sibyl/internal/ensemble"
	"github.com/jmoretti/sibyl/internal/features"
	"github.com/jmoretti/sibyl/internal/forecaster"
	"github.com/jmoretti/sibyl/internal/marketdata"
	"github.com/jmoretti/sibyl/internal/predict"
	"github.com/jmoretti/sibyl/internal/quality"
	"github.com/jmoretti/sibyl/pkg/config"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// historyDays is how far back a full sync reaches. Two years of daily
// data comfortably covers the 200-day regime warm-up plus a backtest.
const historyDays = 730

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	market     *marketdata.Client
	prices     *data.PriceStore
	qualityRun *quality.Pipeline
	qualityRpo *data.QualityRepository
	results    *data.ResultRepository
	engineer   *features.Engineer
	predictor  *predict.Engine
	backtester *backtest.Engine

	engineCfg config.EngineConfig
	logger    *logger.Logger
}

// New creates an orchestrator from already-constructed collaborators.
func New(
	market *marketdata.Client,
	prices *data.PriceStore,
	qualityRun *quality.Pipeline,
	qualityRpo *data.QualityRepository,
	results *data.ResultRepository,
	engineer *features.Engineer,
	predictor *predict.Engine,
	backtester *backtest.Engine,
	engineCfg config.EngineConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		market:     market,
		prices:     prices,
		qualityRun: qualityRun,
		qualityRpo: qualityRpo,
		results:    results,
		engineer:   engineer,
		predictor:  predictor,
		backtester: backtester,
		engineCfg:  engineCfg,
		logger:     log.WithComponent("brain"),
	}
}

// SyncResult summarizes one symbol's sync.
type SyncResult struct {
	Symbol       string  `json:"symbol"`
	PointsStored int     `json:"points_stored"`
	QualityScore float64 `json:"quality_score"`
	Acceptable   bool    `json:"acceptable"`
	Stale        bool    `json:"stale"`
}

// SyncSymbol downloads a symbol's daily history, runs the quality
// pipeline over it and persists the repaired series plus the
// assessment summary.
func (o *Orchestrator) SyncSymbol(ctx context.Context, symbol string) (*SyncResult, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -historyDays)

	raw, err := o.market.FetchDailyPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", symbol, err)
	}

	result, err := o.qualityRun.Process(symbol, raw)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", symbol, err)
	}

	if err := o.prices.SaveBatch(ctx, symbol, result.Data); err != nil {
		return nil, fmt.Errorf("sync %s: store prices: %w", symbol, err)
	}
	if err := o.qualityRpo.Save(ctx, symbol, result); err != nil {
		return nil, fmt.Errorf("sync %s: store assessment: %w", symbol, err)
	}

	return &SyncResult{
		Symbol:       symbol,
		PointsStored: len(result.Data),
		QualityScore: result.QualityScore,
		Acceptable:   quality.IsAcceptable(result, o.engineCfg.MinQualityScore),
		Stale:        o.checkStaleness(ctx, symbol, result.Data),
	}, nil
}

// checkStaleness compares the freshly stored series against the live
// quote page. The daily CSV endpoint can lag the quote by a day during
// the session; a larger gap means the download itself is behind.
// Scrape failures are logged and treated as fresh so a flaky quote
// page never blocks a sync.
func (o *Orchestrator) checkStaleness(ctx context.Context, symbol string, series []contracts.PricePoint) bool {
	if len(series) == 0 {
		return false
	}

	quote, err := o.market.FetchQuote(ctx, symbol)
	if err != nil {
		o.logger.WithField("symbol", symbol).WithError(err).Warn("quote check failed, assuming series is fresh")
		return false
	}

	lastStored := series[len(series)-1].Date
	if marketdata.SeriesStale(lastStored, quote) {
		o.logger.WithFields(map[string]interface{}{
			"symbol":      symbol,
			"last_stored": lastStored.Format("2006-01-02"),
			"quote_date":  quote.Date.Format("2006-01-02"),
		}).Warn("stored series lags the live quote")
		return true
	}
	return false
}

// SyncAll syncs the given symbols plus the benchmark and volatility
// index series. Per-symbol failures are logged and skipped so one bad
// symbol does not abort the batch.
func (o *Orchestrator) SyncAll(ctx context.Context, symbols []string) ([]SyncResult, error) {
	all := append([]string{o.market.BenchmarkSymbol(), o.market.VolIndexSymbol()}, symbols...)

	var results []SyncResult
	for _, symbol := range all {
		select {
		case <-ctx.Done():
			return results, fmt.Errorf("sync interrupted: %w", ctx.Err())
		default:
		}

		result, err := o.SyncSymbol(ctx, symbol)
		if err != nil {
			o.logger.WithField("symbol", symbol).WithError(err).Error("symbol sync failed")
			continue
		}
		results = append(results, *result)
	}

	return results, nil
}

// AssessQuality returns the stored assessment for a symbol, running a
// fresh sync when none exists.
func (o *Orchestrator) AssessQuality(ctx context.Context, symbol string) (*data.QualityRecord, error) {
	record, err := o.qualityRpo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if record == nil {
		if _, err := o.SyncSymbol(ctx, symbol); err != nil {
			return nil, err
		}
		record, err = o.qualityRpo.GetLatest(ctx, symbol)
		if err != nil {
			return nil, err
		}
	}
	return record, nil
}

// loadInputs pulls the symbol, benchmark and volatility series from
// storage and derives market features. The quality gate runs first; a
// symbol below the configured minimum score is rejected.
func (o *Orchestrator) loadInputs(ctx context.Context, symbol string) ([]contracts.PricePoint, []contracts.MarketFeatures, error) {
	record, err := o.AssessQuality(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, contracts.NewDataError(symbol, "no stored history")
	}
	if !quality.AcceptableStats(record.InterpolatedPercent, record.QualityScore, o.engineCfg.MinQualityScore) {
		return nil, nil, contracts.NewDataError(symbol,
			"series not acceptable: quality score %.1f (minimum %.1f), interpolated %.1f%%",
			record.QualityScore, o.engineCfg.MinQualityScore, record.InterpolatedPercent*100)
	}

	stock, err := o.prices.GetLast(ctx, symbol, historyDays)
	if err != nil {
		return nil, nil, err
	}
	index, err := o.prices.GetLast(ctx, o.market.BenchmarkSymbol(), historyDays)
	if err != nil {
		return nil, nil, err
	}
	volIndex, err := o.prices.GetLast(ctx, o.market.VolIndexSymbol(), historyDays)
	if err != nil {
		return nil, nil, err
	}

	feats, err := o.engineer.Calculate(symbol, stock, index, volIndex)
	if err != nil {
		return nil, nil, err
	}
	return stock, feats, nil
}

// buildForecaster constructs and trains an ensemble over the configured
// architecture variants.
func (o *Orchestrator) buildForecaster(ctx context.Context, symbol string, history []contracts.PricePoint, feats []contracts.MarketFeatures) (contracts.Forecaster, error) {
	variants := make([]contracts.Forecaster, 0, len(o.engineCfg.Architectures))
	for _, arch := range o.engineCfg.Architectures {
		variants = append(variants, forecaster.New(symbol, arch, forecaster.Config{
			WindowSize: o.engineCfg.WindowSize,
		}, o.logger))
	}

	combiner, err := ensemble.New(symbol, variants, o.logger)
	if err != nil {
		return nil, err
	}
	if _, err := combiner.Train(ctx, history, feats); err != nil {
		return nil, err
	}

	if meta := combiner.Metadata(); meta != nil {
		if err := o.results.SaveForecastMetadata(ctx, meta); err != nil {
			o.logger.WithField("symbol", symbol).WithError(err).Warn("failed to persist forecast metadata")
		}
	}

	return combiner, nil
}

// Forecast trains an ensemble on the symbol's stored history and
// returns an uncertainty-quantified prediction plus the derived signal.
func (o *Orchestrator) Forecast(ctx context.Context, symbol string, horizon int) (*contracts.PredictionResult, *contracts.TradingSignal, error) {
	if horizon <= 0 {
		horizon = o.engineCfg.Horizon
	}

	history, feats, err := o.loadInputs(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}

	model, err := o.buildForecaster(ctx, symbol, history, feats)
	if err != nil {
		return nil, nil, err
	}

	prediction, err := o.predictor.Predict(ctx, symbol, model, history, horizon, feats)
	if err != nil {
		return nil, nil, err
	}

	signal := predict.GenerateSignal(prediction, contracts.SignalThresholds{
		BuyThreshold:  o.engineCfg.BuyThreshold,
		SellThreshold: o.engineCfg.SellThreshold,
		MinConfidence: o.engineCfg.MinConfidence,
	})

	return prediction, &signal, nil
}

// Backtest trains an ensemble and replays the last `days` trading days,
// persisting the completed run. The progress callback may be nil.
func (o *Orchestrator) Backtest(ctx context.Context, symbol string, days int, progress backtest.ProgressFunc) (*contracts.BacktestResult, error) {
	history, feats, err := o.loadInputs(ctx, symbol)
	if err != nil {
		return nil, err
	}

	model, err := o.buildForecaster(ctx, symbol, history, feats)
	if err != nil {
		return nil, err
	}

	result, err := o.backtester.RunWithProgress(ctx, symbol, model, history, feats, days, progress)
	if err != nil {
		return nil, err
	}

	if err := o.results.SaveBacktest(ctx, result); err != nil {
		o.logger.WithField("symbol", symbol).WithError(err).Warn("failed to persist backtest run")
	}

	return result, nil
}

// Results exposes the result repository for read-only API queries.
func (o *Orchestrator) Results() *data.ResultRepository { return o.results }

// Prices exposes the price store for read-only API queries.
func (o *Orchestrator) Prices() *data.PriceStore { return o.prices }
