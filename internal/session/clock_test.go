package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/config"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// recordingResolver returns the candidate unchanged and remembers it
type recordingResolver struct {
	got []time.Time
	err error
}

func (r *recordingResolver) Resolve(ctx context.Context, candidate time.Time) (time.Time, error) {
	r.got = append(r.got, candidate)
	if r.err != nil {
		return time.Time{}, r.err
	}
	return candidate, nil
}

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func TestMarketClock_Candidate(t *testing.T) {
	loc := newYork(t)
	window := contracts.DefaultSessionWindow(loc)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before open uses previous day", time.Date(2024, 3, 14, 8, 0, 0, 0, loc), "2024-03-13"},
		{"inside opening range uses previous day", time.Date(2024, 3, 14, 9, 44, 59, 0, loc), "2024-03-13"},
		{"exactly at cutoff uses today", time.Date(2024, 3, 14, 9, 45, 0, 0, loc), "2024-03-14"},
		{"afternoon uses today", time.Date(2024, 3, 14, 15, 0, 0, 0, loc), "2024-03-14"},
		{"monday morning yields sunday", time.Date(2024, 3, 18, 9, 0, 0, 0, loc), "2024-03-17"},
		// 13:50 UTC is 09:50 in New York (EDT)
		{"utc wall clock converted to exchange zone", time.Date(2024, 3, 14, 13, 50, 0, 0, time.UTC), "2024-03-14"},
		// 03:00 UTC on the 15th is still the evening of the 14th in New York
		{"utc after midnight still previous local day", time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC), "2024-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := NewMarketClock(fixedClock(tt.now), window, &recordingResolver{}, logger.Nop())
			got := mc.Candidate(nil)
			assert.Equal(t, tt.want, got.Format(contracts.DateLayout))
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestMarketClock_ExplicitDateNotAdjusted(t *testing.T) {
	loc := newYork(t)
	window := contracts.DefaultSessionWindow(loc)
	// before cutoff on the same day: an explicit date is still taken as is
	mc := NewMarketClock(fixedClock(time.Date(2024, 3, 14, 9, 0, 0, 0, loc)), window, &recordingResolver{}, logger.Nop())

	userDate := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	got := mc.Candidate(&userDate)
	assert.Equal(t, "2024-03-14", got.Format(contracts.DateLayout))
	assert.Equal(t, 0, got.Hour())
}

func TestMarketClock_Target(t *testing.T) {
	loc := newYork(t)
	window := contracts.DefaultSessionWindow(loc)
	res := &recordingResolver{}
	mc := NewMarketClock(fixedClock(time.Date(2024, 3, 14, 12, 0, 0, 0, loc)), window, res, logger.Nop())

	s, err := mc.Target(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-14", s.DateString())
	assert.Equal(t, time.Date(2024, 3, 14, 9, 30, 0, 0, loc), s.Open)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 45, 0, 0, loc), s.Cutoff)
	require.Len(t, res.got, 1)
}

func TestMarketClock_TargetWalksWeekend(t *testing.T) {
	loc := newYork(t)
	window := contracts.DefaultSessionWindow(loc)
	data := &referenceData{loc: loc, hasData: map[string]bool{"2024-03-15": true}}
	resolver := NewResolver(data, window, ResolverConfig{}, logger.Nop())
	mc := NewMarketClock(fixedClock(time.Date(2024, 3, 18, 9, 0, 0, 0, loc)), window, resolver, logger.Nop())

	s, err := mc.Target(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", s.DateString())
	assert.Equal(t, time.Date(2024, 3, 15, 9, 45, 0, 0, loc), s.Cutoff)
}

func TestMarketClock_TargetPropagatesResolverError(t *testing.T) {
	loc := newYork(t)
	res := &recordingResolver{err: contracts.ErrNoTradingDayFound}
	mc := NewMarketClock(fixedClock(time.Now()), contracts.DefaultSessionWindow(loc), res, logger.Nop())

	_, err := mc.Target(context.Background(), nil)
	assert.True(t, errors.Is(err, contracts.ErrNoTradingDayFound))
}

func TestWindowFromConfig(t *testing.T) {
	cfg := &config.Config{
		Market: config.MarketConfig{
			Timezone:       "America/New_York",
			SessionOpen:    "09:30",
			SessionCutoff:  "09:45",
			RegularMinutes: 390,
		},
	}

	w, err := WindowFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", w.Location.String())
	assert.InDelta(t, 15.0/390.0, w.SliceFraction(), 1e-12)

	cfg.Market.SessionCutoff = "09:15"
	_, err = WindowFromConfig(cfg)
	assert.Error(t, err)

	cfg.Market.SessionCutoff = "9h45"
	_, err = WindowFromConfig(cfg)
	assert.Error(t, err)
}

func TestExchangeCalendar(t *testing.T) {
	cal, err := NewExchangeCalendar("XNYS")
	require.NoError(t, err)
	assert.Equal(t, "xnys", cal.MIC())

	loc := newYork(t)
	assert.True(t, cal.IsBusinessDay(time.Date(2024, 3, 14, 12, 0, 0, 0, loc)))
	assert.False(t, cal.IsBusinessDay(time.Date(2024, 12, 25, 12, 0, 0, 0, loc)), "Christmas")
	assert.False(t, cal.IsBusinessDay(time.Date(2024, 3, 16, 12, 0, 0, 0, loc)), "Saturday")
}
