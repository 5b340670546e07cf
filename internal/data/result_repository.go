package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// ResultRepository stores forecast metadata and backtest runs. Variable
// shaped payloads (per-architecture metrics, equity curves, trade logs)
// go into JSONB columns so the schema survives model changes.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveForecastMetadata records the outcome of a training run.
func (r *ResultRepository) SaveForecastMetadata(ctx context.Context, meta *contracts.ForecastMetadata) error {
	query := `
		INSERT INTO analytics.forecast_runs
			(symbol, architecture, ensemble, loss, mape, data_points, window_size, metrics, trained_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		meta.Symbol, meta.Architecture, meta.Ensemble, meta.Loss, meta.MAPE,
		meta.DataPoints, meta.WindowSize, meta.Metrics, time.Now().UTC(),
	)
	return err
}

// GetLatestForecastMetadata returns the most recent training run for a
// symbol, or nil when the symbol has never been trained.
func (r *ResultRepository) GetLatestForecastMetadata(ctx context.Context, symbol string) (*contracts.ForecastMetadata, error) {
	query := `
		SELECT symbol, architecture, ensemble, loss, mape, data_points, window_size, metrics
		FROM analytics.forecast_runs
		WHERE symbol = $1
		ORDER BY trained_at DESC
		LIMIT 1
	`

	var meta contracts.ForecastMetadata
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&meta.Symbol, &meta.Architecture, &meta.Ensemble, &meta.Loss,
		&meta.MAPE, &meta.DataPoints, &meta.WindowSize, &meta.Metrics,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveBacktest records a completed backtest run keyed by its run ID.
func (r *ResultRepository) SaveBacktest(ctx context.Context, result *contracts.BacktestResult) error {
	query := `
		INSERT INTO analytics.backtest_runs
			(run_id, symbol, total_return, benchmark_return, alpha, drawdown,
			 sharpe_ratio, win_rate, initial_value, final_value,
			 equity_curve, trades, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		result.RunID, result.Symbol, result.TotalReturn, result.BenchmarkReturn,
		result.Alpha, result.Drawdown, result.SharpeRatio, result.WinRate,
		result.InitialValue, result.FinalValue,
		result.EquityCurve, result.Trades, time.Now().UTC(),
	)
	return err
}

// GetBacktest returns a run by ID, or nil when no such run exists.
func (r *ResultRepository) GetBacktest(ctx context.Context, runID string) (*contracts.BacktestResult, error) {
	query := `
		SELECT run_id, symbol, total_return, benchmark_return, alpha, drawdown,
		       sharpe_ratio, win_rate, initial_value, final_value, equity_curve, trades
		FROM analytics.backtest_runs
		WHERE run_id = $1
	`

	var result contracts.BacktestResult
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&result.RunID, &result.Symbol, &result.TotalReturn, &result.BenchmarkReturn,
		&result.Alpha, &result.Drawdown, &result.SharpeRatio, &result.WinRate,
		&result.InitialValue, &result.FinalValue, &result.EquityCurve, &result.Trades,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// BacktestSummary is a backtest run without its bulky curves, for
// listing endpoints.
type BacktestSummary struct {
	RunID       string    `json:"run_id"`
	Symbol      string    `json:"symbol"`
	TotalReturn float64   `json:"total_return"`
	Alpha       float64   `json:"alpha"`
	SharpeRatio float64   `json:"sharpe_ratio"`
	WinRate     float64   `json:"win_rate"`
	CompletedAt time.Time `json:"completed_at"`
}

// ListBacktests returns recent runs for a symbol, newest first.
func (r *ResultRepository) ListBacktests(ctx context.Context, symbol string, limit int) ([]BacktestSummary, error) {
	query := `
		SELECT run_id, symbol, total_return, alpha, sharpe_ratio, win_rate, completed_at
		FROM analytics.backtest_runs
		WHERE symbol = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []BacktestSummary
	for rows.Next() {
		var s BacktestSummary
		if err := rows.Scan(&s.RunID, &s.Symbol, &s.TotalReturn, &s.Alpha,
			&s.SharpeRatio, &s.WinRate, &s.CompletedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
