package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sibyl",
	Short: "sibyl - stock price forecast evaluation engine",
	Long: `sibyl evaluates stock price forecasts end to end: provider sync,
data quality gating, market feature engineering, ensemble training,
uncertainty-quantified prediction and walk-forward backtesting.

Examples:
  go run ./cmd/sibyl sync aapl.us msft.us
  go run ./cmd/sibyl quality aapl.us
  go run ./cmd/sibyl forecast aapl.us --horizon 5
  go run ./cmd/sibyl backtest aapl.us --days 60
  go run ./cmd/sibyl api
  go run ./cmd/sibyl scheduler --symbols aapl.us,msft.us`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
}
