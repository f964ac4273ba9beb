package shaping

import (
	"math"
	"strings"

	"MarketDash/internal/domain/models"
)

var (
	styleBuy   = models.SignalStyle{Signal: models.SignalBuy, Tone: models.TonePositive, Badge: "🟢", Label: "Buy"}
	styleWait  = models.SignalStyle{Signal: models.SignalWait, Tone: models.ToneCaution, Badge: "🟡", Label: "Wait"}
	styleAvoid = models.SignalStyle{Signal: models.SignalAvoid, Tone: models.ToneNegative, Badge: "🔴", Label: "Avoid"}
	styleHold  = models.SignalStyle{Signal: models.SignalHold, Tone: models.ToneNeutral, Badge: "🔵", Label: "Hold"}
)

// SelectSignalStyle maps a signal to its descriptor. Unknown or empty signals
// get the HOLD descriptor.
func SelectSignalStyle(s models.Signal) models.SignalStyle {
	switch models.ParseSignal(string(s)) {
	case models.SignalBuy:
		return styleBuy
	case models.SignalWait:
		return styleWait
	case models.SignalAvoid:
		return styleAvoid
	default:
		return styleHold
	}
}

// DeriveSignal combines forecast direction and news sentiment.
// UP with POSITIVE is BUY, UP with NEGATIVE is WAIT, DOWN with NEGATIVE is
// AVOID and everything else is HOLD.
func DeriveSignal(dir models.Direction, sentiment models.SentimentLabel) models.Signal {
	d := models.Direction(strings.ToUpper(string(dir)))
	s := models.SentimentLabel(strings.ToUpper(string(sentiment)))
	switch {
	case d == models.DirectionUp && s == models.SentimentPositive:
		return models.SignalBuy
	case d == models.DirectionUp && s == models.SentimentNegative:
		return models.SignalWait
	case d == models.DirectionDown && s == models.SentimentNegative:
		return models.SignalAvoid
	default:
		return models.SignalHold
	}
}

// SentimentFromScore buckets an averaged polarity score.
func SentimentFromScore(score float64) models.SentimentLabel {
	switch {
	case score > 0.1:
		return models.SentimentPositive
	case score < -0.1:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Confidence is the absolute predicted move in percent, rounded to 2 places.
func Confidence(terminal, lastPrice float64) float64 {
	if lastPrice == 0 {
		return 0
	}
	return Round2(math.Abs(terminal-lastPrice) * 100 / lastPrice)
}
