package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/internal/marketdata"
	"github.com/wonny/sectorpulse/internal/scheduler"
	"github.com/wonny/sectorpulse/internal/scheduler/jobs"
	"github.com/wonny/sectorpulse/internal/scoring"
	"github.com/wonny/sectorpulse/internal/selection"
	"github.com/wonny/sectorpulse/internal/session"
	"github.com/wonny/sectorpulse/pkg/config"
	"github.com/wonny/sectorpulse/pkg/httputil"
	"github.com/wonny/sectorpulse/pkg/logger"
	"github.com/wonny/sectorpulse/pkg/redis"
)

// sessionTargeter resolves the session a command analyses
type sessionTargeter interface {
	Target(ctx context.Context, userDate *time.Time) (contracts.TradingSession, error)
}

// rankingService ranks a basket and runs the close-to-close diagnostic
type rankingService interface {
	contracts.Ranker
	DailyChanges(ctx context.Context, tickers []string) ([]contracts.DailyChange, error)
}

// app holds the wired components shared by every command
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	data   contracts.MarketData
	cache  *marketdata.SeriesCache // nil when SERIES_CACHE_TTL is 0
	window contracts.SessionWindow
	clock  sessionTargeter
	ranker rankingService
}

// newApp loads configuration and wires the ranking pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config (global flags override the environment)
	if env != "" {
		os.Setenv("ENV", env)
	}
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger (stderr keeps stdout for command output)
	log := logger.NewWithWriter(cfg, os.Stderr)

	// 3. Session window
	window, err := session.WindowFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("session window: %w", err)
	}

	// 4. Redis (optional, shared provider rate limit)
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	var limiter *redis.RateLimiter
	if rdb.Enabled() {
		limiter = redis.NewRateLimiter(rdb, "sectorpulse")
		log.Info("Connected to Redis")
	}

	// 5. Market data gateway
	httpClient := httputil.New(cfg, log)
	data, err := marketdata.New(cfg, httpClient, limiter, window.Location, log)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("market data: %w", err)
	}

	// 6. Resolver, clock, engine and ranker
	a, err := wirePipeline(cfg, log, window, data)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	a.redis = rdb
	return a, nil
}

// wirePipeline builds the ranking pipeline on top of a market data gateway.
// The optional series cache serves the ranker only: the resolver always asks
// the provider, so a reference day that had no bars yet is not remembered as closed.
func wirePipeline(cfg *config.Config, log *logger.Logger, window contracts.SessionWindow, raw contracts.MarketData) (*app, error) {
	data := raw
	var cache *marketdata.SeriesCache
	if cfg.DataSource.CacheTTL > 0 {
		cache = marketdata.NewSeriesCache(raw, cfg.DataSource.CacheTTL, log)
		data = cache
	}

	resolverCfg := session.ResolverConfig{
		ReferenceSymbol: cfg.Market.ReferenceSymbol,
		MaxAttempts:     cfg.Market.ResolveMaxAttempts,
	}
	if cfg.Market.SkipHolidays {
		cal, err := session.NewExchangeCalendar(cfg.Market.ExchangeMIC)
		if err != nil {
			return nil, fmt.Errorf("holiday calendar: %w", err)
		}
		resolverCfg.Holidays = cal
	}
	resolver := session.NewResolver(raw, window, resolverCfg, log)
	clock := session.NewMarketClock(session.SystemClock{}, window, resolver, log)

	engine := scoring.NewEngine(window, scoring.Config{
		MinDailyBars:   cfg.Scoring.MinDailyBars,
		VolumeLookback: cfg.Scoring.VolumeLookback,
	}, log)
	ranker := selection.NewRanker(data, engine, selection.Config{
		Workers:           cfg.DataSource.Workers,
		DailyLookbackDays: cfg.Scoring.DailyLookbackDays,
	}, log)

	return &app{
		cfg:    cfg,
		log:    log,
		data:   data,
		cache:  cache,
		window: window,
		clock:  clock,
		ranker: ranker,
	}, nil
}

// Close releases external connections
func (a *app) Close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close Redis")
	}
}

// newScheduler registers the snapshot job on a scheduler evaluated in the exchange zone
func (a *app) newScheduler() (*scheduler.Scheduler, *jobs.SnapshotJob, error) {
	sched := scheduler.New(scheduler.Config{
		Location:   a.window.Location,
		MaxRetries: 2,
		RetryDelay: time.Minute,
	}, a.log)

	snapshot := jobs.NewSnapshotJob(a.clock, a.ranker, jobs.SnapshotConfig{
		Tickers:  a.cfg.Scoring.DefaultTickers,
		BottomK:  a.cfg.Scoring.BottomK,
		Schedule: a.cfg.Schedule.SnapshotCron,
	}, a.log)
	if err := sched.AddJob(snapshot); err != nil {
		return nil, nil, err
	}
	if a.cache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.cache, a.log)); err != nil {
			return nil, nil, err
		}
	}

	return sched, snapshot, nil
}
