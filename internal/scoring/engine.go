package scoring

import (
	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// Defaults for the daily history requirement
const (
	DefaultMinDailyBars   = 21 // 20-day trailing average + current
	DefaultVolumeLookback = 20
)

// Config holds score engine parameters
type Config struct {
	MinDailyBars   int
	VolumeLookback int
}

// Engine computes the opening-range strength score of one ticker
// ⭐ SSOT: strength score calculation
type Engine struct {
	window         contracts.SessionWindow
	minDailyBars   int
	volumeLookback int
	logger         *logger.Logger
}

// NewEngine creates a score engine for a session window
func NewEngine(window contracts.SessionWindow, cfg Config, log *logger.Logger) *Engine {
	if cfg.MinDailyBars <= 0 {
		cfg.MinDailyBars = DefaultMinDailyBars
	}
	if cfg.VolumeLookback <= 0 {
		cfg.VolumeLookback = DefaultVolumeLookback
	}
	return &Engine{
		window:         window,
		minDailyBars:   cfg.MinDailyBars,
		volumeLookback: cfg.VolumeLookback,
		logger:         log.WithModule("score_engine"),
	}
}

// Window returns the session window the engine scores against
func (e *Engine) Window() contracts.SessionWindow {
	return e.window
}

// Score implements contracts.Scorer. It never panics on bad data; every unmet
// precondition becomes an error row for the ticker.
func (e *Engine) Score(ticker string, daily, intraday contracts.Series, session contracts.TradingSession) contracts.ScoreResult {
	log := e.logger.WithTicker(ticker)
	m, serr := e.compute(daily, intraday, session)
	if serr != nil {
		log.WithFields(map[string]interface{}{
			"date":   session.DateString(),
			"code":   string(serr.Code),
			"reason": serr.Reason,
		}).Debug("Ticker not scored")
		return contracts.Failed(ticker, serr)
	}

	log.WithFields(map[string]interface{}{
		"date":           session.DateString(),
		"strength_score": m.StrengthScore,
		"color":          string(m.Color),
	}).Debug("Ticker scored")

	return contracts.ScoreResult{
		Ticker:   ticker,
		Snapshot: Round(m),
		Metrics:  m,
	}
}

func (e *Engine) compute(daily, intraday contracts.Series, session contracts.TradingSession) (*contracts.Metrics, *contracts.ScoreError) {
	loc := e.window.Location

	// 1-2. both series present, daily history long enough, zones normalized
	daily = daily.Normalize(loc)
	intraday = intraday.Normalize(loc)
	if len(daily) == 0 || len(intraday) == 0 {
		return nil, contracts.NewScoreError(contracts.ErrInsufficientData,
			"empty series (daily=%d, intraday=%d)", len(daily), len(intraday))
	}
	if len(daily) < e.minDailyBars {
		return nil, contracts.NewScoreError(contracts.ErrInsufficientData,
			"need %d daily bars, got %d", e.minDailyBars, len(daily))
	}

	// 3. previous close: last daily bar on a date before the session
	prior := daily.Filter(func(b contracts.Bar) bool { return b.Time.Before(session.Date) })
	prev, ok := prior.Last()
	if !ok {
		return nil, contracts.NewScoreError(contracts.ErrNoPreviousClose,
			"no daily bar before %s", session.DateString())
	}
	if prev.Close <= 0 {
		return nil, contracts.NewScoreError(contracts.ErrNoPreviousClose,
			"non-positive close %v on %s", prev.Close, prev.Time.Format(contracts.DateLayout))
	}
	if len(prior) < e.volumeLookback {
		return nil, contracts.NewScoreError(contracts.ErrInsufficientData,
			"need %d daily bars before %s, got %d", e.volumeLookback, session.DateString(), len(prior))
	}

	// 4. day slice
	day := intraday.Filter(func(b contracts.Bar) bool { return e.window.SameDate(b.Time, session.Date) })
	if len(day) == 0 {
		return nil, contracts.NewScoreError(contracts.ErrNoIntradayForDate,
			"no intraday bars on %s", session.DateString())
	}

	// 5. opening range [open, cutoff)
	openingRange := day.Between(session.Open, session.Cutoff)
	first, ok := openingRange.First()
	if !ok {
		return nil, contracts.NewScoreError(contracts.ErrNoOpeningRangeData,
			"no bars in [%s, %s)", e.window.Open, e.window.Cutoff)
	}
	if first.Open <= 0 {
		return nil, contracts.NewScoreError(contracts.ErrNoOpeningRangeData,
			"non-positive open %v at %s", first.Open, first.Time.Format("15:04"))
	}

	// 6. price as of the cutoff (inclusive)
	asOf, ok := day.Through(session.Cutoff).Last()
	if !ok {
		return nil, contracts.NewScoreError(contracts.ErrNoPriceAtCutoff,
			"no bar at or before %s", session.Cutoff.Format("15:04"))
	}

	m := &contracts.Metrics{
		PrevClose:     prev.Close,
		OpenAt930:     first.Open,
		PriceAtCutoff: asOf.Close,
	}
	m.OvernightGapPct = PercentChange(m.OpenAt930, m.PrevClose)
	m.IntradayMovePct = PercentChange(m.PriceAtCutoff, m.OpenAt930)
	m.TotalDayMovePct = PercentChange(m.PriceAtCutoff, m.PrevClose)

	m.ORHigh, m.ORLow = openingRange.HighLow()
	m.ORPosition = ORPosition(m.PriceAtCutoff, m.ORHigh, m.ORLow)

	m.Avg20dVolume = prior.Tail(e.volumeLookback).MeanVolume()
	m.Volume15m = openingRange.TotalVolume()
	m.Expected15mVolume = m.Avg20dVolume * e.window.SliceFraction()
	m.RelativeVolume = RelativeVolume(m.Volume15m, m.Expected15mVolume)
	m.VolumeScore = VolumeScore(m.RelativeVolume)

	m.StrengthScore = StrengthScore(m.TotalDayMovePct, m.VolumeScore, m.ORPosition)
	m.Color = ColorFor(m.StrengthScore)

	return m, nil
}
