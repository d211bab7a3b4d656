package contracts

import (
	"context"
	"time"
)

// MarketData fetches raw price/volume series from an external provider
// ⭐ SSOT: market data gateway interface
type MarketData interface {
	// Name returns the provider name
	Name() string

	// FetchDaily returns daily bars covering the trailing lookbackDays calendar days
	FetchDaily(ctx context.Context, symbol string, lookbackDays int) (Series, error)

	// FetchIntraday returns 1-minute bars covering the full local calendar day of date,
	// pre and post market included
	FetchIntraday(ctx context.Context, symbol string, date time.Time) (Series, error)
}

// TradingDayResolver finds the latest valid trading day on or before a candidate date
// ⭐ SSOT: trading-day resolution interface
type TradingDayResolver interface {
	Resolve(ctx context.Context, candidate time.Time) (time.Time, error)
}

// Scorer computes one ticker's score for a resolved session
// ⭐ SSOT: score engine interface
type Scorer interface {
	Score(ticker string, daily, intraday Series, session TradingSession) ScoreResult
}

// Ranker scores a ticker list and selects the weakest
// ⭐ SSOT: ranking aggregator interface
type Ranker interface {
	Rank(ctx context.Context, tickers []string, session TradingSession, bottomK int) (*RankedResult, error)
}
