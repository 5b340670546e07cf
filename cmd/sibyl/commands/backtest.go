package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	backtestDays   int
	backtestTrades bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbol]",
	Short: "replay the strategy over recent history",
	Long: `Trains an ensemble and walks it forward over the last N trading
days, trading at each next day's open, then prints the performance
metrics against buy-and-hold.

Example:
  go run ./cmd/sibyl backtest aapl.us --days 60 --trades`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().IntVar(&backtestDays, "days", 60, "trading days to simulate")
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "print the trade log")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	symbol := args[0]
	result, err := rt.orchestrator.Backtest(cmd.Context(), symbol, backtestDays, func(current, total int) {
		fmt.Printf("\rsimulating day %d/%d", current, total)
	})
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Println()

	fmt.Printf("\nRun:              %s\n", result.RunID)
	fmt.Printf("Symbol:           %s\n", result.Symbol)
	fmt.Printf("Initial value:    %.2f\n", result.InitialValue)
	fmt.Printf("Final value:      %.2f\n", result.FinalValue)
	fmt.Printf("Total return:     %+.2f%%\n", result.TotalReturn*100)
	fmt.Printf("Buy-and-hold:     %+.2f%%\n", result.BenchmarkReturn*100)
	fmt.Printf("Alpha:            %+.2f%%\n", result.Alpha*100)
	fmt.Printf("Max drawdown:     %.2f%%\n", result.Drawdown*100)
	fmt.Printf("Sharpe ratio:     %.2f\n", result.SharpeRatio)
	fmt.Printf("Win rate:         %.0f%%\n", result.WinRate*100)
	fmt.Printf("Trades:           %d\n", len(result.Trades))

	if backtestTrades && len(result.Trades) > 0 {
		fmt.Printf("\n%-12s %-5s %10s %8s %12s\n", "DATE", "SIDE", "PRICE", "SHARES", "VALUE")
		for _, t := range result.Trades {
			fmt.Printf("%-12s %-5s %10.2f %8d %12.2f\n",
				t.Date.Format("2006-01-02"), t.Action, t.Price, t.Shares, t.Value)
		}
	}
	return nil
}
