package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/httputil"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// DefaultBaseURL is the Polygon REST host
const DefaultBaseURL = "https://api.polygon.io"

// maxResults is the aggregates page size; a full extended-hours day of minutes fits in one page
const maxResults = 50000

// Client fetches aggregate bars from Polygon.io
// ⭐ SSOT: Polygon calls happen only in this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	loc        *time.Location
	now        func() time.Time
}

// NewClient creates a new Polygon client
func NewClient(httpClient *httputil.Client, baseURL, apiKey string, loc *time.Location, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("polygon: API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("polygon"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// Name implements contracts.MarketData
func (c *Client) Name() string { return "polygon" }

// FetchDaily returns unadjusted daily aggregates over the trailing lookbackDays calendar days
func (c *Client) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	to := c.now().In(c.loc)
	from := to.AddDate(0, 0, -lookbackDays)

	bars, err := c.fetchAggs(ctx, symbol, "day", from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("polygon daily %s: %w", symbol, err)
	}
	return bars, nil
}

// FetchIntraday returns minute aggregates for the whole local day of date.
// Bounds are millisecond epochs so the day is cut in the exchange zone.
func (c *Client) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	d := date.In(c.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	bars, err := c.fetchAggs(ctx, symbol, "minute",
		strconv.FormatInt(start.UnixMilli(), 10), strconv.FormatInt(end.UnixMilli(), 10))
	if err != nil {
		return nil, fmt.Errorf("polygon intraday %s %s: %w", symbol, start.Format(contracts.DateLayout), err)
	}
	return bars, nil
}

func (c *Client) fetchAggs(ctx context.Context, symbol, timespan, from, to string) (contracts.Series, error) {
	params := url.Values{}
	params.Set("adjusted", "false")
	params.Set("sort", "asc")
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("apiKey", c.apiKey)

	fullURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/%s/%s/%s?%s",
		c.baseURL, url.PathEscape(symbol), timespan, from, to, params.Encode())

	var resp aggsResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	bars := resp.series().Normalize(c.loc)

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"timespan": timespan,
		"count":    len(bars),
	}).Debug("Fetched aggregates")

	return bars, nil
}
