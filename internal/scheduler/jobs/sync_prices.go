// Package jobs holds the scheduled pipeline jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/jmoretti/sibyl/internal/brain"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// SyncPricesJob refreshes daily history for the tracked symbols after
// the US market close: 22:30 UTC, weekdays.
type SyncPricesJob struct {
	orchestrator *brain.Orchestrator
	symbols      []string
	logger       *logger.Logger
}

// NewSyncPricesJob creates the daily sync job.
func NewSyncPricesJob(orchestrator *brain.Orchestrator, symbols []string, log *logger.Logger) *SyncPricesJob {
	return &SyncPricesJob{
		orchestrator: orchestrator,
		symbols:      symbols,
		logger:       log.WithComponent("job_sync_prices"),
	}
}

// Name implements scheduler.Job.
func (j *SyncPricesJob) Name() string { return "sync_prices" }

// Schedule implements scheduler.Job.
func (j *SyncPricesJob) Schedule() string { return "0 30 22 * * 1-5" }

// Run syncs every tracked symbol. Per-symbol failures are handled
// inside SyncAll; the job fails only when nothing could be synced.
func (j *SyncPricesJob) Run(ctx context.Context) error {
	results, err := j.orchestrator.SyncAll(ctx, j.symbols)
	if err != nil {
		return err
	}
	if len(results) == 0 && len(j.symbols) > 0 {
		return fmt.Errorf("all %d symbols failed to sync", len(j.symbols))
	}

	belowGate := 0
	for _, r := range results {
		if !r.Acceptable {
			belowGate++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"synced":     len(results),
		"below_gate": belowGate,
	}).Info("daily price sync finished")

	return nil
}
