package contracts

import (
	"sort"
	"time"
)

// Bar is a single OHLCV bar
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsEmpty reports whether the provider sent a placeholder bar with no prices
func (b Bar) IsEmpty() bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0
}

// Series is an ordered-by-time sequence of bars.
// ⭐ SSOT: every provider response is normalized into this shape before scoring
type Series []Bar

// Normalize converts timestamps into loc, drops empty bars, sorts by time and
// collapses duplicate timestamps (last bar wins). The result is strictly increasing.
func (s Series) Normalize(loc *time.Location) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if b.IsEmpty() {
			continue
		}
		b.Time = b.Time.In(loc)
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

// IsStrictlyIncreasing checks the ordering invariant
func (s Series) IsStrictlyIncreasing() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return false
		}
	}
	return true
}

// In returns a copy with every timestamp converted to loc
func (s Series) In(loc *time.Location) Series {
	out := make(Series, len(s))
	for i, b := range s {
		b.Time = b.Time.In(loc)
		out[i] = b
	}
	return out
}

// Filter returns the bars for which keep returns true
func (s Series) Filter(keep func(Bar) bool) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// Between returns bars in the half-open interval [from, to)
func (s Series) Between(from, to time.Time) Series {
	return s.Filter(func(b Bar) bool {
		return !b.Time.Before(from) && b.Time.Before(to)
	})
}

// Through returns bars with timestamp <= t
func (s Series) Through(t time.Time) Series {
	return s.Filter(func(b Bar) bool { return !b.Time.After(t) })
}

// First returns the first bar
func (s Series) First() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[0], true
}

// Last returns the last bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n bars (or all of them if shorter)
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// HighLow returns the highest high and lowest low
func (s Series) HighLow() (high, low float64) {
	for i, b := range s {
		if i == 0 || b.High > high {
			high = b.High
		}
		if i == 0 || b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// TotalVolume sums volume
func (s Series) TotalVolume() float64 {
	total := 0.0
	for _, b := range s {
		total += b.Volume
	}
	return total
}

// MeanVolume averages volume; zero for an empty series
func (s Series) MeanVolume() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.TotalVolume() / float64(len(s))
}
