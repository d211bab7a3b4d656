package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/sectorpulse/internal/contracts"
)

// Display precision
const (
	pricePlaces = 4
	ratioPlaces = 3
)

// Round builds the display snapshot: prices to 4 places, percentages and
// ratios to 3, volumes to integers. Nothing upstream compares rounded values.
func Round(m *contracts.Metrics) *contracts.Snapshot {
	s := &contracts.Snapshot{
		PrevClose:       round(m.PrevClose, pricePlaces),
		OpenAt930:       round(m.OpenAt930, pricePlaces),
		PriceAtCutoff:   round(m.PriceAtCutoff, pricePlaces),
		OvernightGapPct: round(m.OvernightGapPct, ratioPlaces),
		IntradayMovePct: round(m.IntradayMovePct, ratioPlaces),
		TotalDayMovePct: round(m.TotalDayMovePct, ratioPlaces),
		ORHigh:          round(m.ORHigh, pricePlaces),
		ORLow:           round(m.ORLow, pricePlaces),
		ORPosition:      round(m.ORPosition, ratioPlaces),
		Avg20dVolume:    roundInt(m.Avg20dVolume),
		Volume15m:       roundInt(m.Volume15m),
		VolumeScore:     m.VolumeScore,
		StrengthScore:   round(m.StrengthScore, ratioPlaces),
		Color:           m.Color,
	}
	if m.RelativeVolume != nil {
		rv := round(*m.RelativeVolume, ratioPlaces)
		s.RelativeVolume = &rv
	}
	return s
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundInt(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}
