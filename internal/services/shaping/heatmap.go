package shaping

import (
	"math"

	"MarketDash/internal/domain/models"
)

// Classify maps a percent change onto the seven heatmap buckets:
//
//	>= 4        strong-positive
//	[2, 4)      positive
//	(0, 2)      mild-positive
//	0           neutral
//	(-2, 0)     mild-negative
//	[-4, -2]    negative
//	< -4        strong-negative
//
// NaN is treated as neutral.
func Classify(pct float64) models.HeatBucket {
	switch {
	case math.IsNaN(pct):
		return models.HeatNeutral
	case pct >= 4:
		return models.HeatStrongPositive
	case pct >= 2:
		return models.HeatPositive
	case pct > 0:
		return models.HeatMildPositive
	case pct == 0:
		return models.HeatNeutral
	case pct > -2:
		return models.HeatMildNegative
	case pct >= -4:
		return models.HeatNegative
	default:
		return models.HeatStrongNegative
	}
}
