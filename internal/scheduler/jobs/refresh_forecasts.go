package jobs

import (
	"context"
	"fmt"

	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// RefreshForecastsJob retrains ensembles and regenerates forecasts for
// the tracked symbols nightly, after the price sync has landed:
// 23:00 UTC, weekdays.
type RefreshForecastsJob struct {
	orchestrator *brain.Orchestrator
	symbols      []string
	horizon      int
	logger       *logger.Logger
}

// NewRefreshForecastsJob creates the nightly forecast refresh job.
func NewRefreshForecastsJob(orchestrator *brain.Orchestrator, symbols []string, horizon int, log *logger.Logger) *RefreshForecastsJob {
	return &RefreshForecastsJob{
		orchestrator: orchestrator,
		symbols:      symbols,
		horizon:      horizon,
		logger:       log.WithComponent("job_refresh_forecasts"),
	}
}

// Name implements scheduler.Job.
func (j *RefreshForecastsJob) Name() string { return "refresh_forecasts" }

// Schedule implements scheduler.Job.
func (j *RefreshForecastsJob) Schedule() string { return "0 0 23 * * 1-5" }

// Run refreshes every tracked symbol's forecast. Per-symbol failures
// are logged and counted; the job fails only when every symbol failed.
func (j *RefreshForecastsJob) Run(ctx context.Context) error {
	failed := 0
	for _, symbol := range j.symbols {
		select {
		case <-ctx.Done():
			return fmt.Errorf("forecast refresh interrupted: %w", ctx.Err())
		default:
		}

		prediction, signal, err := j.orchestrator.Forecast(ctx, symbol, j.horizon)
		if err != nil {
			failed++
			j.logger.WithField("symbol", symbol).WithError(err).Error("forecast refresh failed")
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"symbol":     symbol,
			"action":     string(signal.Action),
			"confidence": fmt.Sprintf("%.2f", prediction.Confidence),
			"change":     fmt.Sprintf("%.4f", prediction.PercentChange),
		}).Info("forecast refreshed")
	}

	if failed == len(j.symbols) && failed > 0 {
		return fmt.Errorf("all %d symbols failed to refresh", failed)
	}
	return nil
}
