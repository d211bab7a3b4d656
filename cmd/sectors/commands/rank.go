package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank sector ETFs by opening range strength",
	Long: `Resolves the latest analysable trading day, scores every ticker
on its opening range and prints the ranking with the weakest tickers.

Without --date, a session whose cutoff has not passed yet is skipped
in favour of the previous trading day.

Example:
  go run ./cmd/sectors rank
  go run ./cmd/sectors rank --tickers XLK,XLF,XLE --bottom 2
  go run ./cmd/sectors rank --date 2024-03-15 --json`,
	RunE: runRank,
}

var (
	rankTickers []string
	rankDate    string
	rankBottom  int
	rankJSON    bool
	rankTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(rankCmd)

	// Flags
	rankCmd.Flags().StringSliceVar(&rankTickers, "tickers", nil, "comma separated tickers (default: configured basket)")
	rankCmd.Flags().StringVar(&rankDate, "date", "", "session date YYYY-MM-DD (default: latest analysable)")
	rankCmd.Flags().IntVar(&rankBottom, "bottom", 0, "size of the weakest set (default: BOTTOM_K)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print the raw JSON result")
	rankCmd.Flags().DurationVar(&rankTimeout, "timeout", 2*time.Minute, "overall deadline")
}

// rankOptions are the flag values of one rank invocation
type rankOptions struct {
	tickers []string
	date    string
	bottom  int
	json    bool
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rankTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.rank(ctx, cmd.OutOrStdout(), rankOptions{
		tickers: rankTickers,
		date:    rankDate,
		bottom:  rankBottom,
		json:    rankJSON,
	})
}

// rank fills unset options from config, ranks the basket and prints the result
func (a *app) rank(ctx context.Context, out io.Writer, opts rankOptions) error {
	var userDate *time.Time
	if opts.date != "" {
		d, err := a.window.ParseDate(opts.date)
		if err != nil {
			return err
		}
		userDate = &d
	}

	tickers := normalizeTickers(opts.tickers)
	if len(tickers) == 0 {
		tickers = a.cfg.Scoring.DefaultTickers
	}
	bottomK := opts.bottom
	if bottomK <= 0 {
		bottomK = a.cfg.Scoring.BottomK
	}

	session, err := a.clock.Target(ctx, userDate)
	if err != nil {
		return fmt.Errorf("resolve trading day: %w", err)
	}

	result, err := a.ranker.Rank(ctx, tickers, session, bottomK)
	if err != nil {
		return err
	}

	if opts.json {
		return PrintJSON(out, result)
	}
	PrintRanking(out, result)
	return nil
}

// normalizeTickers upper-cases and de-duplicates flag values, keeping order
func normalizeTickers(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
