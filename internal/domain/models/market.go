package models

// Upstream payloads. Field names follow the market backend's JSON.

type IndexQuote struct {
	Value     float64  `json:"nifty_value"`
	Change    *float64 `json:"change,omitempty"`
	ChangePct float64  `json:"change_pct"`
	Date      string   `json:"date,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// IndexPoint is one row of index history.
type IndexPoint struct {
	Date  string  `json:"Date"`
	Value float64 `json:"NIFTY"`
}

// MoverRecord is one stock in a gainers or losers list.
type MoverRecord struct {
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name,omitempty"`
	Sector          string   `json:"sector,omitempty"`
	LastTradedPrice float64  `json:"ltp"`
	Change          float64  `json:"change"`
	PercentChange   float64  `json:"pct_change"`
	Open            *float64 `json:"open,omitempty"`
	High            *float64 `json:"high,omitempty"`
	Low             *float64 `json:"low,omitempty"`
	Volume          float64  `json:"volume"`
	Source          string   `json:"source,omitempty"`
}

// DisplayName falls back to the symbol when the name is missing.
func (m MoverRecord) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Symbol
}

type MoversSnapshot struct {
	Date    string        `json:"date"`
	Gainers []MoverRecord `json:"gainers"`
	Losers  []MoverRecord `json:"losers"`
}

type Breadth struct {
	Advancers    int      `json:"advancers"`
	Decliners    int      `json:"decliners"`
	Unchanged    int      `json:"unchanged"`
	AdvDeclRatio *float64 `json:"adv_decl_ratio,omitempty"`
}

type SectorMove struct {
	Sector    string  `json:"sector"`
	Advancers int     `json:"advancers"`
	Decliners int     `json:"decliners"`
	Unchanged int     `json:"unchanged"`
	AvgMove   float64 `json:"avg_move"`
}

type MomentumRow struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Pct5d         *float64 `json:"pct_5d,omitempty"`
	Pct20d        *float64 `json:"pct_20d,omitempty"`
	MomentumScore *float64 `json:"momentum_score,omitempty"`
}

type MarketInsights struct {
	Date     string        `json:"date"`
	Breadth  *Breadth      `json:"breadth,omitempty"`
	Sectors  []SectorMove  `json:"sectors"`
	Momentum []MomentumRow `json:"momentum"`
}

// MostActive is the most-bought payload. Symbol is empty when the upstream has no data.
type MostActive struct {
	Date      string        `json:"date"`
	Symbol    string        `json:"symbol"`
	Name      string        `json:"name"`
	LTP       float64       `json:"ltp"`
	PctChange float64       `json:"pct_change"`
	Volume    float64       `json:"volume"`
	TopStocks []MoverRecord `json:"top_stocks"`
	Source    string        `json:"source,omitempty"`
}

type Quote struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	LTP       float64  `json:"ltp"`
	PrevClose float64  `json:"prev_close"`
	Change    float64  `json:"change"`
	ChangePct float64  `json:"change_pct"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Volume    float64  `json:"volume"`
	Source    string   `json:"source,omitempty"`
}

type LiveQuotes struct {
	Count     int     `json:"count"`
	UpdatedAt string  `json:"updated_at"`
	Stocks    []Quote `json:"stocks"`
}

type RankedStock struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Sector       string  `json:"sector"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	Sharpe       float64 `json:"sharpe"`
}

type TopStocks struct {
	Top10     []RankedStock `json:"top_10"`
	Top5      []RankedStock `json:"top_5"`
	AllRanked []RankedStock `json:"all_ranked"`
}

// ForecastStatus reports whether the upstream already holds a fitted forecast.
type ForecastStatus struct {
	Cached bool   `json:"cached"`
	Source string `json:"source,omitempty"`
}

type NewsItem struct {
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Published      string  `json:"published,omitempty"`
	SentimentScore float64 `json:"sentiment_score"`
}

type Sentiment struct {
	Symbol string     `json:"symbol"`
	Score  float64    `json:"score"`
	Label  string     `json:"label"`
	News   []NewsItem `json:"news"`
}

// Decision is the upstream combined per-symbol payload.
type Decision struct {
	Symbol            string            `json:"symbol"`
	DisplayName       string            `json:"display_name"`
	Signal            string            `json:"signal"`
	ConfidencePct     float64           `json:"confidence_pct"`
	ForecastDirection string            `json:"forecast_direction"`
	LastPrice         float64           `json:"last_price"`
	SentimentLabel    string            `json:"sentiment_label"`
	SentimentScore    float64           `json:"sentiment_score"`
	News              []NewsItem        `json:"news"`
	Forecast          []TimeSeriesPoint `json:"forecast"`
	ForecastARIMA     []TimeSeriesPoint `json:"forecast_arima"`
	ForecastSARIMA    []TimeSeriesPoint `json:"forecast_sarima"`
	ForecastGARCH     []TimeSeriesPoint `json:"forecast_garch"`
	History           []TimeSeriesPoint `json:"history"`
}

type SymbolHistory struct {
	Symbol  string            `json:"symbol"`
	Period  string            `json:"period"`
	History []TimeSeriesPoint `json:"history"`
}
