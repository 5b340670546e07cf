package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmoretti/sibyl/internal/scheduler"
	"github.com/jmoretti/sibyl/internal/scheduler/jobs"
)

var (
	schedulerSymbols []string
	runNow           bool
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "run the recurring sync and forecast jobs",
	Long: `Starts the cron scheduler with two jobs:
  sync_prices        - daily history refresh after US close (22:30 UTC)
  refresh_forecasts  - nightly retrain and forecast (23:00 UTC)

Example:
  go run ./cmd/sibyl scheduler --symbols aapl.us,msft.us
  go run ./cmd/sibyl scheduler --symbols aapl.us --now`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringSliceVar(&schedulerSymbols, "symbols", nil, "symbols to track (comma separated)")
	schedulerCmd.Flags().BoolVar(&runNow, "now", false, "trigger both jobs immediately on start")
	_ = schedulerCmd.MarkFlagRequired("symbols")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	sched := scheduler.New(rt.log)

	syncJob := jobs.NewSyncPricesJob(rt.orchestrator, schedulerSymbols, rt.log)
	refreshJob := jobs.NewRefreshForecastsJob(rt.orchestrator, schedulerSymbols, rt.cfg.Engine.Horizon, rt.log)

	if err := sched.AddJob(syncJob); err != nil {
		return err
	}
	if err := sched.AddJob(refreshJob); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if runNow {
		if err := sched.RunJob(syncJob.Name()); err != nil {
			return err
		}
		if err := sched.RunJob(refreshJob.Name()); err != nil {
			return err
		}
	}

	fmt.Printf("scheduler running for %d symbols, Ctrl+C to stop\n", len(schedulerSymbols))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
