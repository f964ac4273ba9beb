package upstream

import (
	"context"
	"net/url"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/pkg/config"
)

// Endpoint labels used for metrics and error reporting.
const (
	EndpointIndexQuote     = "index_quote"
	EndpointIndexHistory   = "index_history"
	EndpointMovers         = "movers"
	EndpointInsights       = "insights"
	EndpointMostActive     = "most_active"
	EndpointLiveQuotes     = "live_quotes"
	EndpointTopStocks      = "top_stocks"
	EndpointForecastStatus = "forecast_status"
	EndpointDecision       = "decision"
	EndpointSentiment      = "sentiment"
	EndpointSymbolHistory  = "symbol_history"
)

// Client is the typed market backend client.
type Client struct {
	base            *HTTPServiceBase
	decisionTimeout time.Duration
}

func NewClient(cfg *config.Config, m domrepo.Metrics) *Client {
	return &Client{
		base:            NewHTTPServiceBase(cfg, m),
		decisionTimeout: cfg.Upstream.DecisionTimeout,
	}
}

func (c *Client) IndexQuote(ctx context.Context) (models.IndexQuote, error) {
	var q models.IndexQuote
	err := c.base.GetJSON(ctx, EndpointIndexQuote, "/api/nifty", nil, 0, &q)
	return q, err
}

func (c *Client) IndexHistory(ctx context.Context, period domrepo.Period) ([]models.IndexPoint, error) {
	var pts []models.IndexPoint
	q := url.Values{"period": {string(domrepo.NormalizePeriod(string(period)))}}
	if err := c.base.GetJSON(ctx, EndpointIndexHistory, "/api/nifty/history", q, 0, &pts); err != nil {
		return nil, err
	}
	if pts == nil {
		pts = []models.IndexPoint{}
	}
	return pts, nil
}

func (c *Client) Movers(ctx context.Context) (models.MoversSnapshot, error) {
	var s models.MoversSnapshot
	if err := c.base.GetJSON(ctx, EndpointMovers, "/api/market-movers", nil, 0, &s); err != nil {
		return s, err
	}
	if s.Gainers == nil {
		s.Gainers = []models.MoverRecord{}
	}
	if s.Losers == nil {
		s.Losers = []models.MoverRecord{}
	}
	return s, nil
}

func (c *Client) Insights(ctx context.Context) (models.MarketInsights, error) {
	var in models.MarketInsights
	if err := c.base.GetJSON(ctx, EndpointInsights, "/api/market-insights", nil, 0, &in); err != nil {
		return in, err
	}
	if in.Sectors == nil {
		in.Sectors = []models.SectorMove{}
	}
	if in.Momentum == nil {
		in.Momentum = []models.MomentumRow{}
	}
	return in, nil
}

// MostActive returns the most-bought payload. A {"most_bought": null}
// answer decodes to a value with an empty Symbol.
func (c *Client) MostActive(ctx context.Context) (models.MostActive, error) {
	var m models.MostActive
	if err := c.base.GetJSON(ctx, EndpointMostActive, "/api/most-bought", nil, 0, &m); err != nil {
		return m, err
	}
	if m.TopStocks == nil {
		m.TopStocks = []models.MoverRecord{}
	}
	return m, nil
}

func (c *Client) LiveQuotes(ctx context.Context, refresh bool) (models.LiveQuotes, error) {
	var lq models.LiveQuotes
	var q url.Values
	if refresh {
		q = url.Values{"refresh": {"true"}}
	}
	if err := c.base.GetJSON(ctx, EndpointLiveQuotes, "/api/live/quotes", q, 0, &lq); err != nil {
		return lq, err
	}
	if lq.Stocks == nil {
		lq.Stocks = []models.Quote{}
	}
	return lq, nil
}

func (c *Client) TopStocks(ctx context.Context) (models.TopStocks, error) {
	var ts models.TopStocks
	if err := c.base.GetJSON(ctx, EndpointTopStocks, "/api/dsfm/top-stocks", nil, 0, &ts); err != nil {
		return ts, err
	}
	if ts.Top10 == nil {
		ts.Top10 = []models.RankedStock{}
	}
	if ts.Top5 == nil {
		ts.Top5 = []models.RankedStock{}
	}
	if ts.AllRanked == nil {
		ts.AllRanked = []models.RankedStock{}
	}
	return ts, nil
}

func (c *Client) ForecastStatus(ctx context.Context, symbol string) (models.ForecastStatus, error) {
	var st models.ForecastStatus
	err := c.base.GetJSON(ctx, EndpointForecastStatus, "/api/dsfm/forecast-status/"+url.PathEscape(symbol), nil, 0, &st)
	return st, err
}

// Decision may take minutes on a cold forecast cache and uses the decision timeout.
func (c *Client) Decision(ctx context.Context, symbol string) (models.Decision, error) {
	var d models.Decision
	if err := c.base.GetJSON(ctx, EndpointDecision, "/api/dsfm/decision/"+url.PathEscape(symbol), nil, c.decisionTimeout, &d); err != nil {
		return d, err
	}
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	if d.DisplayName == "" {
		d.DisplayName = d.Symbol
	}
	if d.News == nil {
		d.News = []models.NewsItem{}
	}
	return d, nil
}

func (c *Client) Sentiment(ctx context.Context, symbol string) (models.Sentiment, error) {
	var s models.Sentiment
	if err := c.base.GetJSON(ctx, EndpointSentiment, "/api/dsfm/sentiment/"+url.PathEscape(symbol), nil, 0, &s); err != nil {
		return s, err
	}
	if s.Symbol == "" {
		s.Symbol = symbol
	}
	if s.News == nil {
		s.News = []models.NewsItem{}
	}
	return s, nil
}

func (c *Client) SymbolHistory(ctx context.Context, symbol string, period domrepo.Period) (models.SymbolHistory, error) {
	var h models.SymbolHistory
	q := url.Values{"period": {string(domrepo.NormalizePeriod(string(period)))}}
	if err := c.base.GetJSON(ctx, EndpointSymbolHistory, "/api/live/history/"+url.PathEscape(symbol), q, 0, &h); err != nil {
		return h, err
	}
	if h.History == nil {
		h.History = []models.TimeSeriesPoint{}
	}
	return h, nil
}

var _ domrepo.MarketBackend = (*Client)(nil)
