package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorpulse/pkg/config"
	"github.com/wonny/sectorpulse/pkg/httputil"
	"github.com/wonny/sectorpulse/pkg/logger"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hc := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	c, err := NewClient(hc, server.URL, "test-key", newYork(t), logger.Nop())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(nil, "", "", time.UTC, logger.Nop())
	assert.Error(t, err)
}

func TestClient_FetchIntraday(t *testing.T) {
	loc := newYork(t)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	start := date.UnixMilli()
	end := date.AddDate(0, 0, 1).UnixMilli() - 1

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v2/aggs/ticker/XLF/range/1/minute/" + strconv.FormatInt(start, 10) + "/" + strconv.FormatInt(end, 10)
		assert.Equal(t, wantPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("adjusted"))
		assert.Equal(t, "asc", q.Get("sort"))
		assert.Equal(t, "test-key", q.Get("apiKey"))

		// 09:31 listed before 09:30 and a duplicate 09:30 (last wins)
		_, _ = w.Write([]byte(`{"ticker":"XLF","status":"OK","resultsCount":3,"results":[
			{"t":1710509460000,"o":40.1,"h":40.3,"l":40.0,"c":40.2,"v":500},
			{"t":1710509400000,"o":39.0,"h":39.0,"l":39.0,"c":39.0,"v":1},
			{"t":1710509400000,"o":40.0,"h":40.2,"l":39.9,"c":40.1,"v":800}
		]}`))
	})

	bars, err := client.FetchIntraday(context.Background(), "XLF", date)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars.IsStrictlyIncreasing())
	assert.Equal(t, "09:30", bars[0].Time.Format("15:04"))
	assert.Equal(t, 40.0, bars[0].Open)
	assert.Equal(t, 800.0, bars[0].Volume)
	assert.Equal(t, loc, bars[1].Time.Location())
}

func TestClient_FetchDaily(t *testing.T) {
	loc := newYork(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/range/1/day/2023-12-16/2024-03-15"), r.URL.Path)
		// daily aggregates start at midnight Eastern
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"t":1710475200000,"o":1,"h":1,"l":1,"c":1,"v":1}]}`))
	})
	client.now = func() time.Time { return time.Date(2024, 3, 15, 15, 0, 0, 0, loc) }

	bars, err := client.FetchDaily(context.Background(), "XLK", 90)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-03-15", bars[0].Time.Format("2006-01-02"))
}

func TestClient_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ticker":"SPY","status":"OK","resultsCount":0}`))
	})

	bars, err := client.FetchIntraday(context.Background(), "SPY", time.Now())
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestClient_StatusErrorInBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_AUTHORIZED","message":"Your plan doesn't include this data timeframe."}`))
	})

	_, err := client.FetchIntraday(context.Background(), "SPY", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_AUTHORIZED")
}

func TestClient_HTTPErrorHidesKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"ERROR","error":"Unknown API Key"}`))
	})

	_, err := client.FetchDaily(context.Background(), "SPY", 90)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key")

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
