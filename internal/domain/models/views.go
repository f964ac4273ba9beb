package models

import "time"

// View models returned by the dashboard use cases.

type OverviewView struct {
	Period    string       `json:"period"`
	Quote     IndexQuote   `json:"quote"`
	Direction Direction    `json:"direction"`
	History   []IndexPoint `json:"history"`
	Empty     bool         `json:"empty"`
	Sequence  uint64       `json:"sequence"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type MoverRow struct {
	MoverRecord
	DisplayName string     `json:"display_name"`
	Heat        HeatBucket `json:"heat"`
	SectorTone  SectorTone `json:"sector_tone"`
	PctLabel    string     `json:"pct_label"`
	PriceLabel  string     `json:"price_label"`
	VolumeLabel string     `json:"volume_label"`
}

type MoversView struct {
	Date     string        `json:"date"`
	Gainers  []MoverRow    `json:"gainers"`
	Losers   []MoverRow    `json:"losers"`
	Breadth  *Breadth      `json:"breadth,omitempty"`
	Sectors  []SectorMove  `json:"sectors"`
	Momentum []MomentumRow `json:"momentum"`
	Empty    bool          `json:"empty"`
}

type HeatmapView struct {
	Date  string     `json:"date"`
	Cells []MoverRow `json:"cells"`
	Empty bool       `json:"empty"`
}

type MostActiveView struct {
	Date      string     `json:"date"`
	Headline  *MoverRow  `json:"headline,omitempty"`
	Tiles     []MoverRow `json:"tiles"`
	Empty     bool       `json:"empty"`
}

type QuotesView struct {
	UpdatedAt string     `json:"updated_at"`
	Quotes    []MoverRow `json:"quotes"`
	Empty     bool       `json:"empty"`
	Sequence  uint64     `json:"sequence"`
}

type RankedRow struct {
	RankedStock
	Rank       int        `json:"rank"`
	SectorTone SectorTone `json:"sector_tone"`
}

type TopStocksView struct {
	Stocks []RankedRow `json:"stocks"`
	Empty  bool        `json:"empty"`
}

// ModelSummary is the terminal row for one forecast model.
type ModelSummary struct {
	Model         string    `json:"model"`
	Terminal      float64   `json:"terminal"`
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
	Label         string    `json:"label"`
	TerminalLabel string    `json:"terminal_label"`
}

// DecisionSummary is the shaped result of one analyse action.
type DecisionSummary struct {
	Symbol            string                       `json:"symbol"`
	DisplayName       string                       `json:"display_name"`
	LastPrice         float64                      `json:"last_price"`
	Signal            Signal                       `json:"signal"`
	Style             SignalStyle                  `json:"style"`
	ConfidencePct     float64                      `json:"confidence_pct"`
	ForecastDirection Direction                    `json:"forecast_direction"`
	SentimentScore    float64                      `json:"sentiment_score"`
	SentimentLabel    SentimentLabel               `json:"sentiment_label"`
	News              []NewsItem                   `json:"news"`
	History           []TimeSeriesPoint            `json:"history"`
	ForecastSeries    map[string][]TimeSeriesPoint `json:"forecast_series"`
	Chart             []MergedRow                  `json:"chart"`
	Models            []ModelSummary               `json:"models"`
}

// AnalysisView is returned by the analyse action.
type AnalysisView struct {
	Decision  DecisionSummary `json:"decision"`
	FromCache bool            `json:"from_cache"`
	Elapsed   int             `json:"elapsed_seconds"`
	SlowHint  bool            `json:"slow_hint"`
}

// SessionView is a snapshot of one dashboard session.
type SessionView struct {
	ID           string           `json:"id"`
	Symbol       string           `json:"symbol,omitempty"`
	Loading      bool             `json:"loading"`
	Elapsed      int              `json:"elapsed_seconds"`
	ElapsedLabel string           `json:"elapsed_label,omitempty"`
	FromCache    bool             `json:"from_cache"`
	SlowHint     bool             `json:"slow_hint"`
	Error        string           `json:"error,omitempty"`
	Decision     *DecisionSummary `json:"decision,omitempty"`
}

// DecisionEvent is the archived record of a completed analysis.
type DecisionEvent struct {
	Symbol            string    `json:"symbol"`
	Signal            Signal    `json:"signal"`
	ConfidencePct     float64   `json:"confidence_pct"`
	ForecastDirection Direction `json:"forecast_direction"`
	SentimentLabel    string    `json:"sentiment_label"`
	SentimentScore    float64   `json:"sentiment_score"`
	LastPrice         float64   `json:"last_price"`
	FromCache         bool      `json:"from_cache"`
	ElapsedMS         int64     `json:"elapsed_ms"`
	Timestamp         time.Time `json:"ts"`
}

// TickerFrame is one push to websocket subscribers.
type TickerFrame struct {
	Type     string      `json:"type"`
	Sequence uint64      `json:"sequence"`
	Index    *IndexQuote `json:"index,omitempty"`
	Quotes   []MoverRow  `json:"quotes,omitempty"`
	At       time.Time   `json:"at"`
}
