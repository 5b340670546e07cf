package contracts

// Gap marks a run of missing calendar days between two adjacent points.
type Gap struct {
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
	GapDays    int `json:"gap_days"`
}

// DataQualityResult is the outcome of running the quality pipeline over
// one symbol's raw daily series. Produced once per sync, immutable after
// creation; consumed by training and backtest gating.
type DataQualityResult struct {
	Data                []PricePoint `json:"data"`
	GapsDetected        int          `json:"gaps_detected"`
	InterpolatedCount   int          `json:"interpolated_count"`
	InterpolatedIndices []int        `json:"interpolated_indices"`
	InterpolatedPercent float64      `json:"interpolated_percent"`
	OutlierCount        int          `json:"outlier_count"`
	OutlierIndices      []int        `json:"outlier_indices"`
	MissingDays         int          `json:"missing_days"`
	QualityScore        float64      `json:"quality_score"` // 0-100, one decimal
}
