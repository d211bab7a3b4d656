package scoring

import "github.com/wonny/sectorpulse/internal/contracts"

// Strength score weights
const (
	volumeWeight     = 0.5
	orPositionWeight = 2.0

	// orBreakout is the position reported when price has left the opening range
	orBreakout = 2.0
)

// PercentChange returns (current-base)/base*100
func PercentChange(current, base float64) float64 {
	return (current - base) / base * 100
}

// RelativeVolume is observed/expected, nil when nothing is expected
func RelativeVolume(observed, expected float64) *float64 {
	if expected <= 0 {
		return nil
	}
	rv := observed / expected
	return &rv
}

// VolumeScore maps relative volume onto 0-3 with strict thresholds
func VolumeScore(relVolume *float64) int {
	if relVolume == nil {
		return 0
	}
	switch rv := *relVolume; {
	case rv > 2.0:
		return 3
	case rv > 1.5:
		return 2
	case rv > 1.0:
		return 1
	default:
		return 0
	}
}

// ORPosition locates price relative to the opening range.
// Outside the range it saturates at +/-2; inside it is centred on the midpoint.
func ORPosition(price, high, low float64) float64 {
	switch {
	case high == low:
		return 0
	case price > high:
		return orBreakout
	case price < low:
		return -orBreakout
	default:
		return (price-low)/(high-low) - 0.5
	}
}

// StrengthScore combines day move, volume confirmation and range position
func StrengthScore(totalDayMovePct float64, volumeScore int, orPosition float64) float64 {
	return totalDayMovePct + volumeWeight*float64(volumeScore) + orPositionWeight*orPosition
}

// ColorFor buckets a strength score; thresholds are tested top-down with strict >
func ColorFor(score float64) contracts.Color {
	switch {
	case score > 3:
		return contracts.ColorDarkGreen
	case score > 1:
		return contracts.ColorBlue
	case score > -1:
		return contracts.ColorGray
	case score > -3:
		return contracts.ColorRed
	default:
		return contracts.ColorDarkRed
	}
}
