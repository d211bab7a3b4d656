package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// DefaultMaxAttempts bounds how many weekdays are checked against the provider
const DefaultMaxAttempts = 10

// State of the backward search
type State int

const (
	StateChecking State = iota
	StateFound
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Resolution records one backward search
type Resolution struct {
	State    State
	Date     time.Time   // valid only in StateFound
	Attempts int         // weekdays checked against the provider
	Checked  []time.Time // checked dates, newest first
	Skipped  []time.Time // weekends and known holidays, never checked
	LastErr  error       // last provider error seen while probing
}

// Resolver finds the latest date <= candidate with minute data for a reference symbol
// ⭐ SSOT: trading-day resolution (the walk is sequential by construction)
type Resolver struct {
	data        contracts.MarketData
	window      contracts.SessionWindow
	reference   string
	maxAttempts int
	holidays    HolidayCalendar
	logger      *logger.Logger
}

// ResolverConfig configures a Resolver
type ResolverConfig struct {
	ReferenceSymbol string
	MaxAttempts     int
	Holidays        HolidayCalendar // optional; known holidays are skipped like weekends
}

// NewResolver creates a trading-day resolver
func NewResolver(data contracts.MarketData, window contracts.SessionWindow, cfg ResolverConfig, log *logger.Logger) *Resolver {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.ReferenceSymbol == "" {
		cfg.ReferenceSymbol = "SPY"
	}
	return &Resolver{
		data:        data,
		window:      window,
		reference:   cfg.ReferenceSymbol,
		maxAttempts: cfg.MaxAttempts,
		holidays:    cfg.Holidays,
		logger:      log.WithModule("resolver"),
	}
}

// Resolve implements contracts.TradingDayResolver
func (r *Resolver) Resolve(ctx context.Context, candidate time.Time) (time.Time, error) {
	res, err := r.Walk(ctx, candidate)
	if err != nil {
		return time.Time{}, err
	}
	return res.Date, nil
}

// Walk runs the Checking -> Found | Exhausted state machine and returns its trace.
// Weekend and holiday skips are free; every checked weekday consumes one attempt.
func (r *Resolver) Walk(ctx context.Context, candidate time.Time) (Resolution, error) {
	res := Resolution{State: StateChecking}
	date := r.window.Date(candidate)

	// Bounds the walk even if a holiday calendar reports every day closed
	maxCalendarDays := r.maxAttempts*7 + 7

	for day := 0; res.State == StateChecking; day++ {
		if day >= maxCalendarDays {
			res.State = StateExhausted
			break
		}

		switch {
		case contracts.IsWeekend(date), r.isHoliday(date):
			res.Skipped = append(res.Skipped, date)

		default:
			res.Attempts++
			res.Checked = append(res.Checked, date)

			found, err := r.hasMinuteData(ctx, date)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, fmt.Errorf("resolve trading day: %w", ctxErr)
				}
				res.LastErr = err
				r.logger.WithError(err).WithFields(map[string]interface{}{
					"date":    date.Format(contracts.DateLayout),
					"attempt": res.Attempts,
				}).Warn("Reference lookup failed")
			}

			if found {
				res.State = StateFound
				res.Date = date
				continue
			}
			if res.Attempts >= r.maxAttempts {
				res.State = StateExhausted
				continue
			}
		}

		date = date.AddDate(0, 0, -1)
	}

	if res.State == StateExhausted {
		err := fmt.Errorf("%w: no %s minute data in %d weekday(s) on or before %s",
			contracts.ErrNoTradingDayFound, r.reference, res.Attempts, r.window.Date(candidate).Format(contracts.DateLayout))
		if res.LastErr != nil {
			err = fmt.Errorf("%w (last provider error: %v)", err, res.LastErr)
		}
		r.logger.WithFields(map[string]interface{}{
			"candidate": r.window.Date(candidate).Format(contracts.DateLayout),
			"attempts":  res.Attempts,
		}).Error("Trading day search exhausted")
		return res, err
	}

	r.logger.WithFields(map[string]interface{}{
		"candidate": r.window.Date(candidate).Format(contracts.DateLayout),
		"date":      res.Date.Format(contracts.DateLayout),
		"attempts":  res.Attempts,
		"skipped":   len(res.Skipped),
	}).Debug("Trading day resolved")

	return res, nil
}

// hasMinuteData reports whether the reference symbol has bars on date
func (r *Resolver) hasMinuteData(ctx context.Context, date time.Time) (bool, error) {
	bars, err := r.data.FetchIntraday(ctx, r.reference, date)
	if err != nil {
		return false, err
	}
	for _, b := range bars {
		if r.window.SameDate(b.Time, date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) isHoliday(date time.Time) bool {
	return r.holidays != nil && !r.holidays.IsBusinessDay(date)
}

// IsNoTradingDay reports whether err is a resolver exhaustion
func IsNoTradingDay(err error) bool {
	return errors.Is(err, contracts.ErrNoTradingDayFound)
}
