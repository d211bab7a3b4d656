package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire
const DateLayout = "2006-01-02"

// ClockTime is a wall-clock time of day in the exchange time zone
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM"
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (expected HH:MM): %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the clock time as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// SessionWindow describes the analysed part of a regular trading session.
// ⭐ SSOT: session open/cutoff and the regular-session length live here and are
// passed by value into the resolver and the score engine.
type SessionWindow struct {
	Location       *time.Location
	Open           ClockTime // start of the opening range (inclusive)
	Cutoff         ClockTime // end of the opening range (exclusive) and the "as of" point
	RegularMinutes float64   // length of the regular session
}

// DefaultSessionWindow returns the US equity window: 09:30-09:45 of a 390-minute session
func DefaultSessionWindow(loc *time.Location) SessionWindow {
	return SessionWindow{
		Location:       loc,
		Open:           ClockTime{Hour: 9, Minute: 30},
		Cutoff:         ClockTime{Hour: 9, Minute: 45},
		RegularMinutes: 390,
	}
}

// Validate checks the window is usable
func (w SessionWindow) Validate() error {
	if w.Location == nil {
		return fmt.Errorf("session window: location is required")
	}
	if w.Cutoff.Minutes() <= w.Open.Minutes() {
		return fmt.Errorf("session window: cutoff %s must be after open %s", w.Cutoff, w.Open)
	}
	if w.RegularMinutes <= 0 {
		return fmt.Errorf("session window: regular minutes must be positive")
	}
	return nil
}

// Date returns the local calendar date of t as midnight in the exchange zone
func (w SessionWindow) Date(t time.Time) time.Time {
	lt := t.In(w.Location)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, w.Location)
}

// DateOf reinterprets the year/month/day of t, in t's own zone, as a date in the
// exchange zone. Used for caller-supplied dates, which carry no meaningful zone.
func (w SessionWindow) DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.Location)
}

// ParseDate parses an ISO calendar date as a date in the exchange zone
func (w SessionWindow) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, w.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// At returns the timestamp of clock time c on the local calendar date of date
func (w SessionWindow) At(date time.Time, c ClockTime) time.Time {
	d := date.In(w.Location)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, w.Location)
}

// OpenAt returns the session open on date
func (w SessionWindow) OpenAt(date time.Time) time.Time {
	return w.At(date, w.Open)
}

// CutoffAt returns the cutoff timestamp on date
func (w SessionWindow) CutoffAt(date time.Time) time.Time {
	return w.At(date, w.Cutoff)
}

// SliceMinutes is the length of the opening range in minutes
func (w SessionWindow) SliceMinutes() float64 {
	return float64(w.Cutoff.Minutes() - w.Open.Minutes())
}

// SliceFraction is the opening range as a fraction of the regular session (15/390 by default)
func (w SessionWindow) SliceFraction() float64 {
	return w.SliceMinutes() / w.RegularMinutes
}

// Session builds the trading session for a local calendar date
func (w SessionWindow) Session(date time.Time) TradingSession {
	d := w.Date(date)
	return TradingSession{
		Date:   d,
		Open:   w.OpenAt(d),
		Cutoff: w.CutoffAt(d),
	}
}

// SameDate reports whether a and b fall on the same local calendar date
func (w SessionWindow) SameDate(a, b time.Time) bool {
	return w.Date(a).Equal(w.Date(b))
}

// TradingSession is a resolved session to analyse
type TradingSession struct {
	Date   time.Time // local midnight
	Open   time.Time
	Cutoff time.Time
}

// DateString returns the ISO calendar date of the session
func (s TradingSession) DateString() string {
	return s.Date.Format(DateLayout)
}

// IsWeekend reports whether t falls on Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
