package shaping

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	crore    = decimal.NewFromInt(10_000_000)
	lakh     = decimal.NewFromInt(100_000)
	thousand = decimal.NewFromInt(1_000)
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatPercent renders a signed percentage, e.g. "+1.25%" or "-0.40%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatVolume renders a volume using crore, lakh and thousand suffixes.
func FormatVolume(v float64) string {
	if math.IsNaN(v) || v <= 0 {
		return "0"
	}
	if math.IsInf(v, 1) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case d.GreaterThanOrEqual(crore):
		return d.Div(crore).StringFixed(2) + "Cr"
	case d.GreaterThanOrEqual(lakh):
		return d.Div(lakh).StringFixed(2) + "L"
	case d.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return d.Round(0).String()
	}
}

// FormatElapsed renders whole seconds as "42s" or "1m 05s".
func FormatElapsed(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %02ds", seconds/60, seconds%60)
}
