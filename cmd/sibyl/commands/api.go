package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmoretti/sibyl/internal/api"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                       - service and database health
  GET  /api/symbols                  - symbols with stored history
  POST /api/sync/{symbol}            - sync one symbol
  GET  /api/quality/{symbol}         - data quality assessment
  GET  /api/forecast/{symbol}        - train and predict
  POST /api/backtest/{symbol}        - run a backtest
  GET  /api/backtest/{symbol}/ws     - backtest with streamed progress
  GET  /api/backtests/{symbol}       - list stored runs
  GET  /api/backtests/run/{run_id}   - one stored run

Example:
  go run ./cmd/sibyl api --port 8091`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	healthH, qualityH, forecastH, backtestH := rt.handlers()
	router := api.NewRouter(healthH, qualityH, forecastH, backtestH, rt.log)
	server := api.New(rt.cfg, rt.log, router)

	go func() {
		if err := server.Start(); err != nil {
			rt.log.WithError(err).Fatal("failed to start server")
		}
	}()

	fmt.Printf("server running on http://localhost:%s\n", rt.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
