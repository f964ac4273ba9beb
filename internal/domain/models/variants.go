package models

import "strings"

// Signal is the recommendation attached to a decision.
type Signal string

const (
	SignalBuy   Signal = "BUY"
	SignalHold  Signal = "HOLD"
	SignalWait  Signal = "WAIT"
	SignalAvoid Signal = "AVOID"
)

// ParseSignal normalises case and whitespace. Unknown values are returned as-is
// so the style lookup can apply its default.
func ParseSignal(s string) Signal {
	return Signal(strings.ToUpper(strings.TrimSpace(s)))
}

// Tone is the presentation tone shared by signals and sectors.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneCaution  Tone = "caution"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// SignalStyle is the presentation descriptor for a signal.
type SignalStyle struct {
	Signal Signal `json:"signal"`
	Tone   Tone   `json:"tone"`
	Badge  string `json:"badge"`
	Label  string `json:"label"`
}

// HeatBucket is one of the seven ordered heatmap buckets.
type HeatBucket string

const (
	HeatStrongPositive HeatBucket = "strong-positive"
	HeatPositive       HeatBucket = "positive"
	HeatMildPositive   HeatBucket = "mild-positive"
	HeatNeutral        HeatBucket = "neutral"
	HeatMildNegative   HeatBucket = "mild-negative"
	HeatNegative       HeatBucket = "negative"
	HeatStrongNegative HeatBucket = "strong-negative"
)

// SectorTone is the colour family assigned to a sector label.
type SectorTone string

const (
	SectorIT           SectorTone = "it"
	SectorFinance      SectorTone = "finance"
	SectorOilGas       SectorTone = "oil-gas"
	SectorAuto         SectorTone = "auto"
	SectorHealthcare   SectorTone = "healthcare"
	SectorFMCG         SectorTone = "fmcg"
	SectorMetal        SectorTone = "metal"
	SectorPower        SectorTone = "power"
	SectorTelecom      SectorTone = "telecom"
	SectorConstruction SectorTone = "construction"
	SectorDurables     SectorTone = "consumer-durables"
	SectorServices     SectorTone = "services"
	SectorOther        SectorTone = "other"
)

// Direction is the forecast direction reported by the upstream.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)

// SentimentLabel is the upstream news sentiment classification.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)
