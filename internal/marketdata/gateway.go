package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/internal/external/polygon"
	"github.com/wonny/sectorpulse/internal/external/yahoo"
	"github.com/wonny/sectorpulse/pkg/config"
	"github.com/wonny/sectorpulse/pkg/httputil"
	"github.com/wonny/sectorpulse/pkg/logger"
	"github.com/wonny/sectorpulse/pkg/redis"
)

// Provider names accepted by DATA_PROVIDER
const (
	ProviderYahoo   = "yahoo"
	ProviderPolygon = "polygon"
)

// New builds the configured market data gateway.
// limiter may be nil; when set, every provider call also passes the shared Redis window.
// ⭐ SSOT: provider selection
func New(cfg *config.Config, httpClient *httputil.Client, limiter *redis.RateLimiter, loc *time.Location, log *logger.Logger) (contracts.MarketData, error) {
	provider := cfg.DataSource.Provider
	if limiter != nil {
		httpClient = httpClient.WithRateLimiter(limiter, redis.ProviderRateLimit(provider))
	}

	var md contracts.MarketData
	switch provider {
	case ProviderYahoo, "":
		md = yahoo.NewClient(httpClient, cfg.DataSource.YahooBaseURL, loc, log)
	case ProviderPolygon:
		c, err := polygon.NewClient(httpClient, cfg.DataSource.PolygonBaseURL, cfg.DataSource.PolygonAPIKey, loc, log)
		if err != nil {
			return nil, err
		}
		md = c
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}

	if cfg.DataSource.FetchTimeout > 0 {
		md = WithTimeout(md, cfg.DataSource.FetchTimeout)
	}

	log.WithModule("marketdata").WithFields(map[string]interface{}{
		"provider":      md.Name(),
		"fetch_timeout": cfg.DataSource.FetchTimeout.String(),
		"shared_limit":  limiter != nil,
	}).Info("Market data gateway ready")

	return md, nil
}

// timeoutGateway bounds every fetch so one stuck call cannot hold a worker forever
type timeoutGateway struct {
	next    contracts.MarketData
	timeout time.Duration
}

// WithTimeout wraps md so each call runs under its own deadline
func WithTimeout(md contracts.MarketData, timeout time.Duration) contracts.MarketData {
	return &timeoutGateway{next: md, timeout: timeout}
}

func (g *timeoutGateway) Name() string { return g.next.Name() }

func (g *timeoutGateway) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.FetchDaily(ctx, symbol, lookbackDays)
}

func (g *timeoutGateway) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.FetchIntraday(ctx, symbol, date)
}
