package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// SeriesCache keeps fetched raw series in memory for a short TTL.
// It is opt-in (SERIES_CACHE_TTL); without it every request refetches.
// Only provider responses are kept, scores are always recomputed. Errors are never cached.
// ⭐ SSOT: in-process series caching
type SeriesCache struct {
	next   contracts.MarketData
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int
	misses  int
}

type cacheEntry struct {
	series    contracts.Series
	fetchedAt time.Time
}

// NewSeriesCache wraps next with a TTL cache
func NewSeriesCache(next contracts.MarketData, ttl time.Duration, log *logger.Logger) *SeriesCache {
	return &SeriesCache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithModule("series_cache"),
		entries: make(map[string]*cacheEntry),
	}
}

// Name returns the wrapped provider name
func (c *SeriesCache) Name() string {
	return c.next.Name()
}

// FetchDaily implements contracts.MarketData
func (c *SeriesCache) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	key := fmt.Sprintf("daily:%s:%d", symbol, lookbackDays)
	return c.fetch(key, func() (contracts.Series, error) {
		return c.next.FetchDaily(ctx, symbol, lookbackDays)
	})
}

// FetchIntraday implements contracts.MarketData
func (c *SeriesCache) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	key := fmt.Sprintf("intraday:%s:%s", symbol, date.Format(contracts.DateLayout))
	return c.fetch(key, func() (contracts.Series, error) {
		return c.next.FetchIntraday(ctx, symbol, date)
	})
}

func (c *SeriesCache) fetch(key string, load func() (contracts.Series, error)) (contracts.Series, error) {
	if s, ok := c.get(key); ok {
		return s, nil
	}

	s, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{series: s, fetchedAt: c.now()}
	c.mu.Unlock()

	return copySeries(s), nil
}

func (c *SeriesCache) get(key string) (contracts.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || c.now().Sub(entry.fetchedAt) > c.ttl {
		c.misses++
		return nil, false
	}

	c.hits++
	return copySeries(entry.series), true
}

// CleanStale removes expired entries and returns how many were dropped
func (c *SeriesCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, entry := range c.entries {
		if now.Sub(entry.fetchedAt) > c.ttl {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Debug("Cleaned stale series from cache")
	}

	return count
}

// Len returns the number of cached series
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *SeriesCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalCount: len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
	}

	now := c.now()
	for _, entry := range c.entries {
		if now.Sub(entry.fetchedAt) > c.ttl {
			stats.StaleCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount int `json:"total_count"`
	FreshCount int `json:"fresh_count"`
	StaleCount int `json:"stale_count"`
	Hits       int `json:"hits"`
	Misses     int `json:"misses"`
}

func copySeries(s contracts.Series) contracts.Series {
	if s == nil {
		return nil
	}
	return append(contracts.Series(nil), s...)
}
