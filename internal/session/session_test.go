package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// referenceData answers reference lookups from a set of dates with data
type referenceData struct {
	mu      sync.Mutex
	loc     *time.Location
	hasData map[string]bool
	errs    map[string]error
	calls   []string
}

func (p *referenceData) Name() string { return "reference" }

func (p *referenceData) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	return nil, errors.New("not used")
}

func (p *referenceData) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := date.Format(contracts.DateLayout)
	p.calls = append(p.calls, key)
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	if !p.hasData[key] {
		return contracts.Series{}, nil
	}
	ts := time.Date(date.Year(), date.Month(), date.Day(), 9, 30, 0, 0, p.loc)
	return contracts.Series{{Time: ts, Open: 500, High: 501, Low: 499, Close: 500.5, Volume: 1000}}, nil
}

func newResolver(t *testing.T, data *referenceData, holidays HolidayCalendar) *Resolver {
	window := contracts.DefaultSessionWindow(data.loc)
	return NewResolver(data, window, ResolverConfig{ReferenceSymbol: "SPY", MaxAttempts: 10, Holidays: holidays}, logger.Nop())
}

func day(loc *time.Location, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestResolver_SaturdayStopsAtFriday(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc, hasData: map[string]bool{"2024-03-15": true}}
	r := newResolver(t, data, nil)

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 16))
	require.NoError(t, err)

	assert.Equal(t, StateFound, res.State)
	assert.Equal(t, "2024-03-15", res.Date.Format(contracts.DateLayout))
	assert.Equal(t, 1, res.Attempts, "weekend skip must be free")
	assert.Equal(t, []string{"2024-03-15"}, data.calls, "first checked weekday is the preceding Friday")
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, time.Saturday, res.Skipped[0].Weekday())
}

func TestResolver_SundaySkipsWholeWeekend(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc, hasData: map[string]bool{"2024-03-15": true}}
	r := newResolver(t, data, nil)

	date, err := r.Resolve(context.Background(), day(loc, 2024, 3, 17))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", date.Format(contracts.DateLayout))
	assert.Equal(t, []string{"2024-03-15"}, data.calls)
}

func TestResolver_DataGapWalksBack(t *testing.T) {
	loc := newYork(t)
	// Friday has no data yet (publishing delay); Thursday does
	data := &referenceData{loc: loc, hasData: map[string]bool{"2024-03-14": true}}
	r := newResolver(t, data, nil)

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", res.Date.Format(contracts.DateLayout))
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []string{"2024-03-15", "2024-03-14"}, data.calls)
}

func TestResolver_ExhaustedIsHardError(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc, hasData: map[string]bool{}}
	r := newResolver(t, data, nil)

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNoTradingDayFound))
	assert.True(t, IsNoTradingDay(err))
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 10, res.Attempts)
	assert.Len(t, data.calls, 10)
	for _, c := range res.Checked {
		assert.False(t, contracts.IsWeekend(c), "weekend %s must never be checked", c.Format(contracts.DateLayout))
	}
	// 10 weekdays back from Friday 2024-03-15 reaches Monday 2024-03-04
	assert.Equal(t, "2024-03-04", res.Checked[len(res.Checked)-1].Format(contracts.DateLayout))

	_, err = r.Resolve(context.Background(), day(loc, 2024, 3, 15))
	assert.ErrorIs(t, err, contracts.ErrNoTradingDayFound)
}

func TestResolver_ProviderErrorsConsumeAttempts(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{
		loc:     loc,
		hasData: map[string]bool{"2024-03-13": true},
		errs: map[string]error{
			"2024-03-15": errors.New("503 from provider"),
			"2024-03-14": errors.New("503 from provider"),
		},
	}
	r := newResolver(t, data, nil)

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-13", res.Date.Format(contracts.DateLayout))
	assert.Equal(t, 3, res.Attempts)
	require.Error(t, res.LastErr)
}

func TestResolver_ExhaustedReportsLastProviderError(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc, errs: map[string]error{}}
	for d := day(loc, 2024, 2, 1); d.Before(day(loc, 2024, 3, 16)); d = d.AddDate(0, 0, 1) {
		data.errs[d.Format(contracts.DateLayout)] = errors.New("provider down")
	}
	r := NewResolver(data, contracts.DefaultSessionWindow(loc), ResolverConfig{MaxAttempts: 3}, logger.Nop())

	_, err := r.Resolve(context.Background(), day(loc, 2024, 3, 15))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrNoTradingDayFound)
	assert.Contains(t, err.Error(), "provider down")
	assert.Len(t, data.calls, 3)
}

func TestResolver_ContextCancelled(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc, errs: map[string]error{"2024-03-15": context.Canceled}}
	r := newResolver(t, data, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, day(loc, 2024, 3, 15))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNoTradingDay(err))
}

type closedOn map[string]bool

func (c closedOn) IsBusinessDay(date time.Time) bool {
	return !c[date.Format(contracts.DateLayout)]
}

func TestResolver_HolidaySkippedForFree(t *testing.T) {
	loc := newYork(t)
	// Good Friday 2024-03-29 closed; Thursday has data
	data := &referenceData{loc: loc, hasData: map[string]bool{"2024-03-28": true, "2024-03-29": true}}
	r := newResolver(t, data, closedOn{"2024-03-29": true})

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 30))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-28", res.Date.Format(contracts.DateLayout))
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, res.Skipped, 2)
}

func TestResolver_AlwaysClosedCalendarTerminates(t *testing.T) {
	loc := newYork(t)
	data := &referenceData{loc: loc}
	r := NewResolver(data, contracts.DefaultSessionWindow(loc), ResolverConfig{MaxAttempts: 2, Holidays: alwaysClosed{}}, logger.Nop())

	res, err := r.Walk(context.Background(), day(loc, 2024, 3, 15))
	require.ErrorIs(t, err, contracts.ErrNoTradingDayFound)
	assert.Equal(t, 0, res.Attempts)
	assert.Empty(t, data.calls)
}

type alwaysClosed struct{}

func (alwaysClosed) IsBusinessDay(time.Time) bool { return false }

func TestState_String(t *testing.T) {
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "found", StateFound.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
}
