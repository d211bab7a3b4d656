package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/httputil"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches bars from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance calls happen only in this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	loc        *time.Location
	now        func() time.Time
}

// NewClient creates a new Yahoo Finance client.
// loc is the exchange zone every returned bar is converted into.
func NewClient(httpClient *httputil.Client, baseURL string, loc *time.Location, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("yahoo"),
		baseURL:    baseURL,
		loc:        loc,
		now:        time.Now,
	}
}

// Name implements contracts.MarketData
func (c *Client) Name() string { return "yahoo" }

// FetchDaily returns daily bars over the trailing lookbackDays calendar days
func (c *Client) FetchDaily(ctx context.Context, symbol string, lookbackDays int) (contracts.Series, error) {
	end := c.now()
	start := end.AddDate(0, 0, -lookbackDays)

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("events", "history")

	bars, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, fmt.Errorf("yahoo daily %s: %w", symbol, err)
	}
	return bars, nil
}

// FetchIntraday returns 1-minute bars, extended hours included, for the local day of date
func (c *Client) FetchIntraday(ctx context.Context, symbol string, date time.Time) (contracts.Series, error) {
	d := date.In(c.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	end := start.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("interval", "1m")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("includePrePost", "true")

	bars, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, fmt.Errorf("yahoo intraday %s %s: %w", symbol, start.Format(contracts.DateLayout), err)
	}
	return bars, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) (contracts.Series, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, err
	}

	bars, err := resp.series()
	if err != nil {
		return nil, err
	}
	bars = bars.Normalize(c.loc)

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"interval": params.Get("interval"),
		"count":    len(bars),
	}).Debug("Fetched chart")

	return bars, nil
}
