package shaping

import (
	"math"

	"MarketDash/internal/domain/models"
)

// Terminal is the final forecast value of a series relative to the last price.
type Terminal struct {
	Value         float64 `json:"value"`
	PercentChange float64 `json:"percent_change"`
	// Meaningful is false when the reference price cannot anchor a percentage.
	Meaningful bool `json:"meaningful"`
}

// DeriveTerminal returns the last point's price and its percent change from
// lastPrice. It reports false for an empty series or a last point without a
// price so the caller can drop that model's summary.
func DeriveTerminal(points []models.TimeSeriesPoint, lastPrice float64) (Terminal, bool) {
	if len(points) == 0 {
		return Terminal{}, false
	}
	end := points[len(points)-1].Price
	if end == nil || math.IsNaN(*end) {
		return Terminal{}, false
	}

	t := Terminal{Value: *end}
	if lastPrice <= 0 || math.IsNaN(lastPrice) || math.IsInf(lastPrice, 0) {
		return t, true
	}
	t.PercentChange = (*end - lastPrice) * 100 / lastPrice
	t.Meaningful = true
	return t, true
}

// DirectionOf classifies a percent change.
func DirectionOf(pct float64) models.Direction {
	switch {
	case pct > 0:
		return models.DirectionUp
	case pct < 0:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}
