package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// HolidayCalendar knows which dates an exchange is closed on
type HolidayCalendar interface {
	IsBusinessDay(date time.Time) bool
}

// ExchangeCalendar adapts scmhub/calendar to HolidayCalendar
type ExchangeCalendar struct {
	mic string
	cal *calendar.Calendar
}

// NewExchangeCalendar loads the calendar for an ISO 10383 MIC (e.g. "xnys")
func NewExchangeCalendar(mic string) (*ExchangeCalendar, error) {
	mic = strings.ToLower(mic)
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return nil, fmt.Errorf("no exchange calendar for MIC %q", mic)
	}
	return &ExchangeCalendar{mic: mic, cal: cal}, nil
}

// IsBusinessDay reports whether the exchange trades on the local date of date
func (c *ExchangeCalendar) IsBusinessDay(date time.Time) bool {
	if c.cal.Loc != nil {
		date = date.In(c.cal.Loc)
	}
	return c.cal.IsBusinessDay(date)
}

// Location returns the exchange time zone known to the calendar
func (c *ExchangeCalendar) Location() *time.Location {
	return c.cal.Loc
}

// MIC returns the market identifier code
func (c *ExchangeCalendar) MIC() string {
	return c.mic
}
