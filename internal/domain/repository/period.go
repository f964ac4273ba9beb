package repository

// Period is a history window accepted by the upstream.
type Period string

const (
	Period1M Period = "1mo"
	Period3M Period = "3mo"
	Period6M Period = "6mo"
	Period1Y Period = "1y"
	Period2Y Period = "2y"
	Period5Y Period = "5y"
)

// IsValidPeriod returns true if p is a supported window.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1M, Period3M, Period6M, Period1Y, Period2Y, Period5Y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default history window.
func DefaultPeriod() Period { return Period1Y }

// NormalizePeriod converts raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}
