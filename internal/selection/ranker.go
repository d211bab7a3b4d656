package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// Defaults for a ranking request
const (
	DefaultBottomK           = 4
	DefaultWorkers           = 4
	DefaultDailyLookbackDays = 90
)

// Ranker fetches, scores and ranks a ticker list for one session
// ⭐ SSOT: ranking and bottom-K selection
type Ranker struct {
	data   contracts.MarketData
	scorer contracts.Scorer
	config Config
	logger *logger.Logger
}

// Config holds ranker configuration
type Config struct {
	Workers           int // concurrent fetch+score workers
	DailyLookbackDays int // calendar days of daily history requested per ticker
}

// NewRanker creates a new ranker
func NewRanker(data contracts.MarketData, scorer contracts.Scorer, cfg Config, log *logger.Logger) *Ranker {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.DailyLookbackDays <= 0 {
		cfg.DailyLookbackDays = DefaultDailyLookbackDays
	}
	return &Ranker{
		data:   data,
		scorer: scorer,
		config: cfg,
		logger: log.WithModule("ranker"),
	}
}

// Rank scores every ticker independently and selects the bottomK weakest.
// Per-ticker failures become error rows; only cancellation of ctx fails the call.
func (r *Ranker) Rank(ctx context.Context, tickers []string, session contracts.TradingSession, bottomK int) (*contracts.RankedResult, error) {
	if bottomK <= 0 {
		bottomK = DefaultBottomK
	}

	start := time.Now()
	r.logger.WithFields(map[string]interface{}{
		"date":     session.DateString(),
		"tickers":  len(tickers),
		"workers":  r.config.Workers,
		"bottom_k": bottomK,
	}).Info("Starting ranking")

	rows := make([]contracts.ScoreResult, len(tickers))
	runPool(ctx, len(tickers), r.config.Workers, func(ctx context.Context, i int) {
		rows[i] = r.scoreTicker(ctx, tickers[i], session)
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranking %s: %w", session.DateString(), err)
	}

	result := assemble(session, rows, bottomK)

	r.logger.WithFields(map[string]interface{}{
		"date":     result.Date,
		"scored":   len(result.Succeeded()),
		"failed":   len(rows) - len(result.Succeeded()),
		"bottom":   result.Bottom,
		"duration": time.Since(start).String(),
	}).Info("Ranking completed")

	return result, nil
}

// scoreTicker fetches both series and scores them. The ticker travels with
// its own row, so completion order never matters.
func (r *Ranker) scoreTicker(ctx context.Context, ticker string, session contracts.TradingSession) contracts.ScoreResult {
	daily, err := r.data.FetchDaily(ctx, ticker, r.config.DailyLookbackDays)
	if err != nil {
		return r.fetchFailed(ticker, "daily", err)
	}

	intraday, err := r.data.FetchIntraday(ctx, ticker, session.Date)
	if err != nil {
		return r.fetchFailed(ticker, "intraday", err)
	}

	return r.scorer.Score(ticker, daily, intraday, session)
}

func (r *Ranker) fetchFailed(ticker, kind string, err error) contracts.ScoreResult {
	r.logger.WithTicker(ticker).WithError(err).WithField("series", kind).Warn("Market data fetch failed")

	return contracts.Failed(ticker, contracts.NewScoreError(
		contracts.ErrProviderFetchFailure, "%s: %s", kind, Sanitize(err.Error(), maxReasonLength)))
}

// assemble orders rows (scored by strength desc, then failures in input order)
// and picks the weakest bottomK, ascending, never padded.
func assemble(session contracts.TradingSession, rows []contracts.ScoreResult, bottomK int) *contracts.RankedResult {
	scored := make([]contracts.ScoreResult, 0, len(rows))
	failed := make([]contracts.ScoreResult, 0)
	for _, row := range rows {
		if row.OK() {
			scored = append(scored, row)
		} else {
			failed = append(failed, row)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Metrics.StrengthScore > scored[j].Metrics.StrengthScore
	})

	weakest := make([]contracts.ScoreResult, len(scored))
	copy(weakest, scored)
	sort.SliceStable(weakest, func(i, j int) bool {
		return weakest[i].Metrics.StrengthScore < weakest[j].Metrics.StrengthScore
	})
	if len(weakest) > bottomK {
		weakest = weakest[:bottomK]
	}

	bottom := make([]string, 0, len(weakest))
	for _, row := range weakest {
		bottom = append(bottom, row.Ticker)
	}

	return &contracts.RankedResult{
		Date:   session.DateString(),
		Cutoff: session.Cutoff.Format(time.RFC3339),
		Bottom: bottom,
		Rows:   append(scored, failed...),
	}
}
