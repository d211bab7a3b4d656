package contracts

import (
	"errors"
	"fmt"
)

// ErrNoTradingDayFound is returned when the backward search for a trading day is exhausted.
// It is fatal for a whole ranking request.
var ErrNoTradingDayFound = errors.New("no trading day found")

// ErrorCode tags a per-ticker failure
type ErrorCode string

const (
	ErrInsufficientData     ErrorCode = "InsufficientData"
	ErrNoPreviousClose      ErrorCode = "NoPreviousClose"
	ErrNoIntradayForDate    ErrorCode = "NoIntradayForDate"
	ErrNoOpeningRangeData   ErrorCode = "NoOpeningRangeData"
	ErrNoPriceAtCutoff      ErrorCode = "NoPriceAtCutoff"
	ErrProviderFetchFailure ErrorCode = "ProviderFetchFailure"
)

// ScoreError is a per-ticker, recoverable failure
type ScoreError struct {
	Code   ErrorCode
	Reason string
}

// NewScoreError creates a tagged failure
func NewScoreError(code ErrorCode, format string, args ...interface{}) *ScoreError {
	return &ScoreError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Color classifies a strength score
type Color string

const (
	ColorDarkGreen Color = "dark_green"
	ColorBlue      Color = "blue"
	ColorGray      Color = "gray"
	ColorRed       Color = "red"
	ColorDarkRed   Color = "dark_red"
)

// Metrics holds the unrounded values computed by the score engine.
// Ranking compares these, never the rounded snapshot.
type Metrics struct {
	PrevClose         float64
	OpenAt930         float64
	PriceAtCutoff     float64
	OvernightGapPct   float64
	IntradayMovePct   float64
	TotalDayMovePct   float64
	ORHigh            float64
	ORLow             float64
	ORPosition        float64
	Avg20dVolume      float64
	Volume15m         float64
	Expected15mVolume float64
	RelativeVolume    *float64 // nil when the expected volume is not positive
	VolumeScore       int
	StrengthScore     float64
	Color             Color
}

// Snapshot is the display form of Metrics (prices 4dp, ratios 3dp, integer volumes)
type Snapshot struct {
	PrevClose       float64  `json:"prev_close"`
	OpenAt930       float64  `json:"open_930"`
	PriceAtCutoff   float64  `json:"price_cutoff"`
	OvernightGapPct float64  `json:"overnight_gap_pct"`
	IntradayMovePct float64  `json:"intraday_move_pct"`
	TotalDayMovePct float64  `json:"total_day_move_pct"`
	ORHigh          float64  `json:"or_high"`
	ORLow           float64  `json:"or_low"`
	ORPosition      float64  `json:"or_position"`
	Avg20dVolume    int64    `json:"avg20d_volume"`
	Volume15m       int64    `json:"vol_15m"`
	RelativeVolume  *float64 `json:"rel_volume"`
	VolumeScore     int      `json:"volume_score"`
	StrengthScore   float64  `json:"strength_score"`
	Color           Color    `json:"color"`
}

// ScoreResult is one ticker's row: either a snapshot or an error tag with a reason.
// Immutable once produced.
type ScoreResult struct {
	Ticker string `json:"ticker"`
	*Snapshot
	Error   ErrorCode `json:"error,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Metrics *Metrics  `json:"-"`
}

// OK reports whether the ticker was scored
func (r ScoreResult) OK() bool {
	return r.Error == "" && r.Metrics != nil && r.Snapshot != nil
}

// Failed builds an error row for ticker
func Failed(ticker string, err *ScoreError) ScoreResult {
	return ScoreResult{Ticker: ticker, Error: err.Code, Reason: err.Reason}
}

// RankedResult is the response of a ranking request
type RankedResult struct {
	Date   string        `json:"date"`
	Cutoff string        `json:"cutoff"`
	Bottom []string      `json:"bottom"`
	Rows   []ScoreResult `json:"rows"`
}

// Succeeded returns the scored rows
func (r *RankedResult) Succeeded() []ScoreResult {
	out := make([]ScoreResult, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.OK() {
			out = append(out, row)
		}
	}
	return out
}

// DailyChange is the close-to-close diagnostic for one ticker
type DailyChange struct {
	Ticker    string   `json:"ticker"`
	ChangePct *float64 `json:"change_pct,omitempty"`
	Error     string   `json:"error,omitempty"`
}
