package selection

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wonny/sectorpulse/internal/contracts"
)

const (
	// dailyChangeLookbackDays covers the last two sessions across a long weekend
	dailyChangeLookbackDays = 7
	maxDailyErrorLength     = 50
)

// DailyChanges reports the close-to-close change of the last two daily bars
// per ticker. It is a provider smoke test and needs no resolved session.
func (r *Ranker) DailyChanges(ctx context.Context, tickers []string) ([]contracts.DailyChange, error) {
	out := make([]contracts.DailyChange, len(tickers))
	runPool(ctx, len(tickers), r.config.Workers, func(ctx context.Context, i int) {
		out[i] = r.dailyChange(ctx, tickers[i])
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, c := range out {
		if c.Error != "" {
			failed++
		}
	}
	r.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"failed":  failed,
	}).Info("Daily change check completed")

	return out, nil
}

func (r *Ranker) dailyChange(ctx context.Context, ticker string) contracts.DailyChange {
	bars, err := r.data.FetchDaily(ctx, ticker, dailyChangeLookbackDays)
	if err != nil {
		return contracts.DailyChange{Ticker: ticker, Error: Sanitize(err.Error(), maxDailyErrorLength)}
	}
	if len(bars) < 2 || bars[len(bars)-2].Close == 0 {
		return contracts.DailyChange{Ticker: ticker, Error: "No data"}
	}

	last := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	change := decimal.NewFromFloat((last - prev) / prev * 100).Round(2).InexactFloat64()
	return contracts.DailyChange{Ticker: ticker, ChangePct: &change}
}
