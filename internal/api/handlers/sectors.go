package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// maxTickers bounds a single request
const maxTickers = 50

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,12}$`)

// SessionTargeter resolves the session a request analyses
type SessionTargeter interface {
	Target(ctx context.Context, userDate *time.Time) (contracts.TradingSession, error)
}

// DailyChecker runs the close-to-close diagnostic
type DailyChecker interface {
	DailyChanges(ctx context.Context, tickers []string) ([]contracts.DailyChange, error)
}

// SnapshotSource exposes the latest scheduled ranking
type SnapshotSource interface {
	Last() *contracts.RankedResult
}

// SectorHandler serves sector strength rankings
// ⭐ SSOT: request parsing for rankings lives here
type SectorHandler struct {
	clock    SessionTargeter
	ranker   contracts.Ranker
	daily    DailyChecker
	snapshot SnapshotSource
	window   contracts.SessionWindow
	defaults []string
	bottomK  int
	timeout  time.Duration
	logger   *logger.Logger
}

// SectorHandlerConfig holds request defaults
type SectorHandlerConfig struct {
	DefaultTickers []string
	BottomK        int
	RequestTimeout time.Duration // 0 leaves the request context untouched
}

// NewSectorHandler creates a new sector handler
func NewSectorHandler(
	clock SessionTargeter,
	ranker contracts.Ranker,
	daily DailyChecker,
	window contracts.SessionWindow,
	cfg SectorHandlerConfig,
	log *logger.Logger,
) *SectorHandler {
	return &SectorHandler{
		clock:    clock,
		ranker:   ranker,
		daily:    daily,
		window:   window,
		defaults: cfg.DefaultTickers,
		bottomK:  cfg.BottomK,
		timeout:  cfg.RequestTimeout,
		logger:   log.WithModule("sector_handler"),
	}
}

// WithSnapshot serves scheduled snapshots from src
func (h *SectorHandler) WithSnapshot(src SnapshotSource) *SectorHandler {
	h.snapshot = src
	return h
}

// RankRequest is a parsed ranking request
type RankRequest struct {
	Tickers []string
	Date    *time.Time
	BottomK int
}

// GetSectors ranks the requested tickers and returns the weakest
// GET /api/sectors?tickers=XLK,XLF&date=2024-03-15&bottom=4
func (h *SectorHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	req, err := h.ParseRankRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.clock.Target(ctx, req.Date)
	if err != nil {
		if errors.Is(err, contracts.ErrNoTradingDayFound) {
			h.logger.WithError(err).Warn("No trading day found")
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to resolve trading day")
		respondError(w, statusForContext(err), "Failed to resolve trading day")
		return
	}

	result, err := h.ranker.Rank(ctx, req.Tickers, session, req.BottomK)
	if err != nil {
		h.logger.WithError(err).Error("Failed to rank sectors")
		respondError(w, statusForContext(err), "Failed to rank sectors")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetDailyChanges returns the last close-to-close change per ticker
// GET /api/sectors/daily?tickers=XLK,XLF
func (h *SectorHandler) GetDailyChanges(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.parseTickers(r.URL.Query().Get("tickers"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.daily.DailyChanges(ctx, tickers)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check daily changes")
		respondError(w, statusForContext(err), "Failed to check daily changes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// GetSnapshot returns the latest scheduled ranking
// GET /api/sectors/snapshot
func (h *SectorHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshot == nil {
		respondError(w, http.StatusNotFound, "Scheduler is not running")
		return
	}
	last := h.snapshot.Last()
	if last == nil {
		respondError(w, http.StatusNotFound, "No snapshot yet")
		return
	}
	respondJSON(w, http.StatusOK, last)
}

// ParseRankRequest reads tickers, date and bottom from the query string
func (h *SectorHandler) ParseRankRequest(r *http.Request) (RankRequest, error) {
	q := r.URL.Query()

	tickers, err := h.parseTickers(q.Get("tickers"))
	if err != nil {
		return RankRequest{}, err
	}
	req := RankRequest{Tickers: tickers, BottomK: h.bottomK}

	if s := strings.TrimSpace(q.Get("date")); s != "" {
		date, err := h.window.ParseDate(s)
		if err != nil {
			return RankRequest{}, err
		}
		req.Date = &date
	}

	if s := strings.TrimSpace(q.Get("bottom")); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil || k <= 0 {
			return RankRequest{}, fmt.Errorf("invalid bottom %q (expected a positive integer)", s)
		}
		req.BottomK = k
	}

	return req, nil
}

// parseTickers upper-cases, trims and de-duplicates a comma list, keeping order.
// An empty list selects the default basket.
func (h *SectorHandler) parseTickers(raw string) ([]string, error) {
	seen := make(map[string]bool)
	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		if !tickerPattern.MatchString(t) {
			return nil, fmt.Errorf("invalid ticker %q", t)
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	if len(tickers) == 0 {
		return append([]string(nil), h.defaults...), nil
	}
	if len(tickers) > maxTickers {
		return nil, fmt.Errorf("too many tickers: %d (max %d)", len(tickers), maxTickers)
	}
	return tickers, nil
}

// requestContext bounds upstream work by the configured request timeout
func (h *SectorHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func statusForContext(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
