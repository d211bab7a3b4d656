package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("09:45")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9, Minute: 45}, c)
	assert.Equal(t, "09:45", c.String())
	assert.Equal(t, 585, c.Minutes())

	_, err = ParseClockTime("9.45")
	assert.Error(t, err)
}

func TestSessionWindow_Validate(t *testing.T) {
	loc := mustNewYork(t)

	assert.NoError(t, DefaultSessionWindow(loc).Validate())

	w := DefaultSessionWindow(nil)
	assert.Error(t, w.Validate())

	w = DefaultSessionWindow(loc)
	w.Cutoff = w.Open
	assert.Error(t, w.Validate())

	w = DefaultSessionWindow(loc)
	w.RegularMinutes = 0
	assert.Error(t, w.Validate())
}

func TestSessionWindow_SliceFraction(t *testing.T) {
	w := DefaultSessionWindow(mustNewYork(t))
	assert.Equal(t, 15.0, w.SliceMinutes())
	assert.InDelta(t, 15.0/390.0, w.SliceFraction(), 1e-12)
}

func TestSessionWindow_SessionAcrossDST(t *testing.T) {
	loc := mustNewYork(t)
	w := DefaultSessionWindow(loc)

	// EST before the 2024-03-10 switch, EDT after
	before := w.Session(time.Date(2024, 3, 8, 0, 0, 0, 0, loc))
	after := w.Session(time.Date(2024, 3, 11, 0, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 3, 8, 14, 45, 0, 0, time.UTC), before.Cutoff.UTC())
	assert.Equal(t, time.Date(2024, 3, 11, 13, 45, 0, 0, time.UTC), after.Cutoff.UTC())
	assert.Equal(t, time.Date(2024, 3, 11, 13, 30, 0, 0, time.UTC), after.Open.UTC())
	assert.Equal(t, "2024-03-11", after.DateString())
}

func TestSessionWindow_Dates(t *testing.T) {
	loc := mustNewYork(t)
	w := DefaultSessionWindow(loc)

	// 02:00 UTC is the previous evening in New York
	late := time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", w.Date(late).Format(DateLayout))
	assert.Equal(t, "2024-03-16", w.DateOf(late).Format(DateLayout), "caller dates keep their calendar day")

	assert.True(t, w.SameDate(late, time.Date(2024, 3, 15, 9, 30, 0, 0, loc)))
	assert.False(t, w.SameDate(late, time.Date(2024, 3, 16, 9, 30, 0, 0, loc)))

	d, err := w.ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 0, d.Hour())

	_, err = w.ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)))
}
