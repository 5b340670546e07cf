// Package data implements the PostgreSQL persistence layer. Each
// repository owns one table family; nothing outside this package
// writes SQL.
package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// PriceRepository stores daily OHLCV series.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Save upserts a single price point.
func (r *PriceRepository) Save(ctx context.Context, symbol string, point contracts.PricePoint) error {
	query := `
		INSERT INTO market.daily_prices
			(symbol, trade_date, open, high, low, close, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query,
		symbol, point.Date, point.Open, point.High, point.Low,
		point.Close, point.AdjClose, point.Volume,
	)
	return err
}

// SaveBatch upserts a series in one round trip.
func (r *PriceRepository) SaveBatch(ctx context.Context, symbol string, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO market.daily_prices
			(symbol, trade_date, open, high, low, close, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume`

	for _, p := range points {
		batch.Queue(query, symbol, p.Date, p.Open, p.High, p.Low,
			p.Close, p.AdjClose, p.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// GetRange returns the series for a symbol between from and to,
// inclusive, in ascending date order.
func (r *PriceRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date, open, high, low, close, adj_close, volume
		FROM market.daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetLast returns the most recent n points for a symbol in ascending
// date order.
func (r *PriceRepository) GetLast(ctx context.Context, symbol string, n int) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date, open, high, low, close, adj_close, volume
		FROM (
			SELECT trade_date, open, high, low, close, adj_close, volume
			FROM market.daily_prices
			WHERE symbol = $1
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetLatest returns the most recent point for a symbol, or nil when
// the symbol has no stored history.
func (r *PriceRepository) GetLatest(ctx context.Context, symbol string) (*contracts.PricePoint, error) {
	query := `
		SELECT trade_date, open, high, low, close, adj_close, volume
		FROM market.daily_prices
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var p contracts.PricePoint
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSymbols returns every symbol with stored history.
func (r *PriceRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM market.daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

func scanPricePoints(rows pgx.Rows) ([]contracts.PricePoint, error) {
	var points []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
