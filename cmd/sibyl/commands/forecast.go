package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forecastHorizon int

var forecastCmd = &cobra.Command{
	Use:   "forecast [symbol]",
	Short: "train an ensemble and predict the next trading days",
	Long: `Trains an ensemble over the configured architecture variants on the
symbol's stored history and prints an uncertainty-quantified forecast
plus the derived trading signal.

Example:
  go run ./cmd/sibyl forecast aapl.us --horizon 5`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().IntVar(&forecastHorizon, "horizon", 0, "forecast days (default from config)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	symbol := args[0]
	prediction, signal, err := rt.orchestrator.Forecast(cmd.Context(), symbol, forecastHorizon)
	if err != nil {
		return err
	}

	fmt.Printf("Symbol:          %s\n", prediction.Symbol)
	fmt.Printf("Current price:   %.2f\n", prediction.CurrentPrice)
	fmt.Printf("Confidence:      %.0f%%\n", prediction.Confidence*100)
	fmt.Printf("Expected change: %+.2f%%\n", prediction.PercentChange*100)
	fmt.Println()

	fmt.Printf("%-12s %10s %10s %10s\n", "DATE", "PRICE", "LOW", "HIGH")
	for _, p := range prediction.PredictedData {
		fmt.Printf("%-12s %10.2f %10.2f %10.2f\n",
			p.Date.Format("2006-01-02"), p.Price, p.LowerBound, p.UpperBound)
	}

	fmt.Printf("\nSignal: %s (%s)\n", signal.Action, signal.Reason)
	return nil
}
