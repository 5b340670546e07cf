package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var qualityCmd = &cobra.Command{
	Use:   "quality [symbol]",
	Short: "show the data quality assessment for a symbol",
	Long: `Prints the stored quality assessment for a symbol, syncing the
symbol first when no assessment exists.

Example:
  go run ./cmd/sibyl quality aapl.us`,
	Args: cobra.ExactArgs(1),
	RunE: runQuality,
}

func init() {
	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	symbol := args[0]
	record, err := rt.orchestrator.AssessQuality(cmd.Context(), symbol)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no assessment available for %s", symbol)
	}

	fmt.Printf("Symbol:               %s\n", record.Symbol)
	fmt.Printf("Assessed at:          %s\n", record.AssessedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Data points:          %d\n", record.DataPoints)
	fmt.Printf("Gaps detected:        %d\n", record.GapsDetected)
	fmt.Printf("Interpolated:         %d (%.1f%%)\n", record.InterpolatedCount, record.InterpolatedPercent*100)
	fmt.Printf("Outliers flagged:     %d\n", record.OutlierCount)
	fmt.Printf("Missing days:         %d\n", record.MissingDays)
	fmt.Printf("Quality score:        %.1f / 100\n", record.QualityScore)

	if record.QualityScore < rt.cfg.Engine.MinQualityScore {
		fmt.Printf("\nWARNING: below the configured minimum of %.1f; predictions are gated off\n",
			rt.cfg.Engine.MinQualityScore)
	}
	return nil
}
