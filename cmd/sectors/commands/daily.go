package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// dailyCmd represents the daily command
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show the last close-to-close change per ticker",
	Long: `Diagnostic view: percent change between the two latest daily closes.
It does not use the opening range and needs no trading-day resolution.

Example:
  go run ./cmd/sectors daily
  go run ./cmd/sectors daily --tickers SPY,QQQ --json`,
	RunE: runDaily,
}

var (
	dailyTickers []string
	dailyJSON    bool
)

func init() {
	rootCmd.AddCommand(dailyCmd)

	dailyCmd.Flags().StringSliceVar(&dailyTickers, "tickers", nil, "comma separated tickers (default: configured basket)")
	dailyCmd.Flags().BoolVar(&dailyJSON, "json", false, "print the raw JSON result")
}

func runDaily(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.daily(ctx, cmd.OutOrStdout(), dailyTickers, dailyJSON)
}

// daily prints the close-to-close change of rawTickers, or of the configured basket
func (a *app) daily(ctx context.Context, out io.Writer, rawTickers []string, asJSON bool) error {
	tickers := normalizeTickers(rawTickers)
	if len(tickers) == 0 {
		tickers = a.cfg.Scoring.DefaultTickers
	}

	changes, err := a.ranker.DailyChanges(ctx, tickers)
	if err != nil {
		return err
	}

	if asJSON {
		return PrintJSON(out, map[string]interface{}{"results": changes})
	}
	PrintDailyChanges(out, changes)
	return nil
}
