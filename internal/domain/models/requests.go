package models

// Requests for dashboard HTTP endpoints.

type OverviewRequest struct {
	Period string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type QuotesRequest struct {
	Refresh bool `query:"refresh" json:"refresh"`
}

type TopStocksRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=50"`
}

type AnalysisRequest struct {
	Symbol  string   `param:"symbol" json:"symbol" validate:"required,max=32,symbol"`
	Session string   `query:"session" json:"session" validate:"omitempty,uuid4"`
	Models  []string `json:"models" validate:"omitempty,dive,oneof=history arima sarima garch"`
}

type SymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=32,symbol"`
}

type ArchiveRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=32,symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type SessionRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=64"`
}
