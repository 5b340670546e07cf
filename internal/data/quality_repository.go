package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// QualityRepository stores the per-symbol outcome of the data quality
// pipeline. One row per symbol per sync; the latest row gates training
// and backtesting.
type QualityRepository struct {
	pool *pgxpool.Pool
}

// NewQualityRepository creates a new quality repository.
func NewQualityRepository(pool *pgxpool.Pool) *QualityRepository {
	return &QualityRepository{pool: pool}
}

// QualityRecord is a stored quality assessment. The cleaned series
// itself lives in the prices table; only the summary is kept here.
type QualityRecord struct {
	Symbol              string    `json:"symbol"`
	AssessedAt          time.Time `json:"assessed_at"`
	DataPoints          int       `json:"data_points"`
	GapsDetected        int       `json:"gaps_detected"`
	InterpolatedCount   int       `json:"interpolated_count"`
	InterpolatedPercent float64   `json:"interpolated_percent"`
	OutlierCount        int       `json:"outlier_count"`
	MissingDays         int       `json:"missing_days"`
	QualityScore        float64   `json:"quality_score"`
	OutlierIndices      []int     `json:"outlier_indices"`
}

// Save records a quality assessment for a symbol.
func (r *QualityRepository) Save(ctx context.Context, symbol string, result *contracts.DataQualityResult) error {
	query := `
		INSERT INTO market.quality_assessments
			(symbol, assessed_at, data_points, gaps_detected, interpolated_count,
			 interpolated_percent, outlier_count, missing_days, quality_score, outlier_indices)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol) DO UPDATE SET
			assessed_at = EXCLUDED.assessed_at,
			data_points = EXCLUDED.data_points,
			gaps_detected = EXCLUDED.gaps_detected,
			interpolated_count = EXCLUDED.interpolated_count,
			interpolated_percent = EXCLUDED.interpolated_percent,
			outlier_count = EXCLUDED.outlier_count,
			missing_days = EXCLUDED.missing_days,
			quality_score = EXCLUDED.quality_score,
			outlier_indices = EXCLUDED.outlier_indices
	`

	_, err := r.pool.Exec(ctx, query,
		symbol, time.Now().UTC(), len(result.Data), result.GapsDetected,
		result.InterpolatedCount, result.InterpolatedPercent,
		result.OutlierCount, result.MissingDays, result.QualityScore,
		result.OutlierIndices,
	)
	return err
}

// GetLatest returns the stored assessment for a symbol, or nil when
// the symbol has never been assessed.
func (r *QualityRepository) GetLatest(ctx context.Context, symbol string) (*QualityRecord, error) {
	query := `
		SELECT symbol, assessed_at, data_points, gaps_detected, interpolated_count,
		       interpolated_percent, outlier_count, missing_days, quality_score, outlier_indices
		FROM market.quality_assessments
		WHERE symbol = $1
	`

	var rec QualityRecord
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&rec.Symbol, &rec.AssessedAt, &rec.DataPoints, &rec.GapsDetected,
		&rec.InterpolatedCount, &rec.InterpolatedPercent, &rec.OutlierCount,
		&rec.MissingDays, &rec.QualityScore, &rec.OutlierIndices,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListBelowScore returns symbols whose latest assessment falls below
// the given score, for operator review.
func (r *QualityRepository) ListBelowScore(ctx context.Context, score float64) ([]QualityRecord, error) {
	query := `
		SELECT symbol, assessed_at, data_points, gaps_detected, interpolated_count,
		       interpolated_percent, outlier_count, missing_days, quality_score, outlier_indices
		FROM market.quality_assessments
		WHERE quality_score < $1
		ORDER BY quality_score ASC
	`

	rows, err := r.pool.Query(ctx, query, score)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QualityRecord
	for rows.Next() {
		var rec QualityRecord
		if err := rows.Scan(
			&rec.Symbol, &rec.AssessedAt, &rec.DataPoints, &rec.GapsDetected,
			&rec.InterpolatedCount, &rec.InterpolatedPercent, &rec.OutlierCount,
			&rec.MissingDays, &rec.QualityScore, &rec.OutlierIndices,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
