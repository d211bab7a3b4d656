package session

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/config"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// WindowFromConfig builds the immutable session window from configuration
func WindowFromConfig(cfg *config.Config) (contracts.SessionWindow, error) {
	open, err := contracts.ParseClockTime(cfg.Market.SessionOpen)
	if err != nil {
		return contracts.SessionWindow{}, fmt.Errorf("session open: %w", err)
	}
	cutoff, err := contracts.ParseClockTime(cfg.Market.SessionCutoff)
	if err != nil {
		return contracts.SessionWindow{}, fmt.Errorf("session cutoff: %w", err)
	}

	w := contracts.SessionWindow{
		Location:       cfg.Location(),
		Open:           open,
		Cutoff:         cutoff,
		RegularMinutes: cfg.Market.RegularMinutes,
	}
	if err := w.Validate(); err != nil {
		return contracts.SessionWindow{}, err
	}
	return w, nil
}

// MarketClock turns "now" or a caller-supplied date into the session to analyse
// ⭐ SSOT: target date and cutoff resolution
type MarketClock struct {
	clock    Clock
	window   contracts.SessionWindow
	resolver contracts.TradingDayResolver
	logger   *logger.Logger
}

// NewMarketClock creates a market clock
func NewMarketClock(clock Clock, window contracts.SessionWindow, resolver contracts.TradingDayResolver, log *logger.Logger) *MarketClock {
	return &MarketClock{
		clock:    clock,
		window:   window,
		resolver: resolver,
		logger:   log.WithModule("market_clock"),
	}
}

// Candidate returns the date handed to the resolver.
// Without a date, a session that has not reached its cutoff yet is not analysable,
// so the previous calendar day is used. An explicit date is taken as is.
func (m *MarketClock) Candidate(userDate *time.Time) time.Time {
	if userDate != nil {
		return m.window.DateOf(*userDate)
	}

	now := m.clock.Now().In(m.window.Location)
	today := m.window.Date(now)
	if now.Before(m.window.CutoffAt(today)) {
		return today.AddDate(0, 0, -1)
	}
	return today
}

// Target resolves the trading session to analyse
func (m *MarketClock) Target(ctx context.Context, userDate *time.Time) (contracts.TradingSession, error) {
	candidate := m.Candidate(userDate)

	date, err := m.resolver.Resolve(ctx, candidate)
	if err != nil {
		return contracts.TradingSession{}, err
	}

	s := m.window.Session(date)
	m.logger.WithFields(map[string]interface{}{
		"candidate": candidate.Format(contracts.DateLayout),
		"date":      s.DateString(),
		"cutoff":    s.Cutoff.Format(time.RFC3339),
		"explicit":  userDate != nil,
	}).Debug("Target session resolved")

	return s, nil
}
