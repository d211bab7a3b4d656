package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// countingData counts provider calls and fails while err is set
type countingData struct {
	daily    int
	intraday int
	err      error
}

func (d *countingData) Name() string { return "counting" }

func (d *countingData) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	d.daily++
	if d.err != nil {
		return nil, d.err
	}
	return contracts.Series{{Time: time.Unix(0, 0), Close: 100}}, nil
}

func (d *countingData) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	d.intraday++
	if d.err != nil {
		return nil, d.err
	}
	return contracts.Series{{Time: date, Close: 100}}, nil
}

func newTestCache(next contracts.MarketData, now *time.Time) *SeriesCache {
	c := NewSeriesCache(next, time.Minute, logger.Nop())
	c.now = func() time.Time { return *now }
	return c
}

func TestSeriesCache_HitsWithinTTL(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 50, 0, 0, time.UTC)
	data := &countingData{}
	c := newTestCache(data, &now)
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := c.FetchIntraday(ctx, "SPY", date)
	require.NoError(t, err)
	s, err := c.FetchIntraday(ctx, "SPY", date)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, 1, data.intraday)

	// another date and symbol are separate entries
	_, _ = c.FetchIntraday(ctx, "SPY", date.AddDate(0, 0, -1))
	_, _ = c.FetchIntraday(ctx, "XLK", date)
	assert.Equal(t, 3, data.intraday)

	_, _ = c.FetchDaily(ctx, "XLK", 90)
	_, _ = c.FetchDaily(ctx, "XLK", 90)
	_, _ = c.FetchDaily(ctx, "XLK", 7)
	assert.Equal(t, 2, data.daily)

	stats := c.Stats()
	assert.Equal(t, 5, stats.TotalCount)
	assert.Equal(t, 2, stats.Hits)
	assert.Equal(t, "counting", c.Name())
}

func TestSeriesCache_ExpiresAndCleans(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 50, 0, 0, time.UTC)
	data := &countingData{}
	c := newTestCache(data, &now)
	ctx := context.Background()

	_, _ = c.FetchDaily(ctx, "XLK", 90)
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, c.Stats().StaleCount)
	_, _ = c.FetchDaily(ctx, "XLK", 90)
	assert.Equal(t, 2, data.daily, "expired entry is refetched")

	_, _ = c.FetchDaily(ctx, "XLF", 90)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, c.CleanStale())
	assert.Equal(t, 0, c.Len())
}

func TestSeriesCache_ErrorsNotCached(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 50, 0, 0, time.UTC)
	data := &countingData{err: errors.New("503")}
	c := newTestCache(data, &now)

	_, err := c.FetchDaily(context.Background(), "XLK", 90)
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	data.err = nil
	s, err := c.FetchDaily(context.Background(), "XLK", 90)
	require.NoError(t, err)
	assert.Len(t, s, 1)
	assert.Equal(t, 2, data.daily)
}

func TestSeriesCache_ReturnsCopies(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 50, 0, 0, time.UTC)
	c := newTestCache(&countingData{}, &now)

	s, _ := c.FetchDaily(context.Background(), "XLK", 90)
	s[0].Close = -1

	again, _ := c.FetchDaily(context.Background(), "XLK", 90)
	assert.Equal(t, 100.0, again[0].Close)
}
