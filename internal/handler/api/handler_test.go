package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/service/ratelimit"
	"MarketDash/internal/services/upstream"
	"MarketDash/internal/usecase"
	"MarketDash/pkg/cache"
	"MarketDash/pkg/config"
	xlogger "MarketDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// backend is a canned market backend keyed by path.
type backend struct {
	routes    map[string]string
	decisions atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/dsfm/decision/") {
		b.decisions.Add(1)
	}
	body, ok := b.routes[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
		return
	}
	if strings.HasPrefix(body, "!") {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, body[1:])
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func defaultRoutes() map[string]string {
	return map[string]string{
		"/api/nifty":           `{"nifty_value":22000.5,"change":-120.25,"change_pct":-0.54}`,
		"/api/nifty/history":   `[{"Date":"2024-01-02","NIFTY":21500},{"Date":"2024-01-03","NIFTY":21650}]`,
		"/api/market-movers":   `{"date":"2024-01-03","gainers":[{"symbol":"TCS","ltp":3500,"pct_change":2.5,"volume":1000}],"losers":[{"symbol":"INFY","ltp":1500,"pct_change":-1.2,"volume":2000}]}`,
		"/api/market-insights": `{"date":"2024-01-03","sectors":[],"momentum":[]}`,
		"/api/most-bought":     `{"symbol":"INFY","name":"Infosys","ltp":1500,"pct_change":-1.2,"volume":2000,"top_stocks":[]}`,
		"/api/live/quotes":     `{"count":1,"updated_at":"2024-01-03T10:00:00","stocks":[{"symbol":"TCS","ltp":3500,"prev_close":3400,"change":100,"change_pct":2.94}]}`,
		"/api/dsfm/top-stocks": `{"top_10":[],"top_5":[],"all_ranked":[]}`,

		"/api/dsfm/forecast-status/TCS": `{"cached":false}`,

		"/api/dsfm/decision/TCS": `{"symbol":"TCS","signal":"BUY","confidence_pct":72,"forecast_direction":"UP","last_price":3500,
			"sentiment_label":"Positive","sentiment_score":0.4,"news":[],
			"history":[{"date":"2024-01-02","price":3450},{"date":"2024-01-03","price":3500}],
			"forecast":[{"date":"2024-01-04","price":3550}],"forecast_arima":[],"forecast_sarima":[],"forecast_garch":[]}`,
	}
}

type testServer struct {
	e        *echo.Echo
	backend  *backend
	sessions *usecase.SessionStore
}

func newTestServer(t *testing.T, routes map[string]string, limiter echo.MiddlewareFunc) *testServer {
	t.Helper()
	b := &backend{routes: routes}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Upstream.BaseURL = srv.URL
	cfg.Upstream.Timeout = 2 * time.Second
	cfg.Upstream.DecisionTimeout = 2 * time.Second

	m := domrepo.NopMetrics{}
	client := upstream.NewClient(cfg, m)
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	logger := xlogger.Nop()
	sessions := usecase.NewSessionStore(time.Hour)
	dash := usecase.NewDashboardUseCase(client, mem, m, time.Minute, "memory")
	analysis := usecase.NewAnalysisUseCase(client, sessions, m, logger,
		usecase.WithDecisionCache(mem, time.Minute))

	e := echo.New()
	NewDashboardHandler(logger, dash).RegisterRoutes(e)
	NewAnalysisHandler(logger, analysis, limiter).RegisterRoutes(e)
	return &testServer{e: e, backend: b, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad envelope %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func TestOverview(t *testing.T) {
	s := newTestServer(t, defaultRoutes(), nil)
	rec, env := s.do(t, http.MethodGet, "/api/v1/overview?period=6mo", "")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var v struct {
		Period    string `json:"period"`
		Direction string `json:"direction"`
		History   []any  `json:"history"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Period != "6mo" || len(v.History) != 2 {
		t.Fatalf("view = %+v", v)
	}
	if rec.Header().Get(echo.HeaderCacheControl) == "" {
		t.Fatal("cache-control header missing")
	}
}

func TestOverviewRejectsUnknownPeriod(t *testing.T) {
	s := newTestServer(t, defaultRoutes(), nil)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/overview?period=10y", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  string
		route string
		want  int
	}{
		{"missing endpoint is 404", "/api/market-movers", "", "/api/v1/movers", http.StatusNotFound},
		{"server error is 502", "/api/live/quotes", `!{"detail":"yfinance down"}`, "/api/v1/quotes", http.StatusBadGateway},
		{"heatmap shares movers failure", "/api/market-movers", `!oops`, "/api/v1/heatmap", http.StatusBadGateway},
	}
	for _, tt := range tests {
		routes := defaultRoutes()
		if tt.body == "" {
			delete(routes, tt.path)
		} else {
			routes[tt.path] = tt.body
		}
		s := newTestServer(t, routes, nil)
		rec, _ := s.do(t, http.MethodGet, tt.route, "")
		if rec.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestTopStocksLimitValidation(t *testing.T) {
	s := newTestServer(t, defaultRoutes(), nil)
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/top-stocks?limit=100", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=100 status = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/top-stocks", ""); rec.Code != http.StatusOK {
		t.Fatalf("default limit status = %d", rec.Code)
	}
}

func TestAnalyseAndSession(t *testing.T) {
	s := newTestServer(t, defaultRoutes(), nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/analysis/TCS", `{"models":["history","arima"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyse status = %d body=%s", rec.Code, rec.Body.String())
	}
	var res struct {
		SessionID string `json:"session_id"`
		FromCache bool   `json:"from_cache"`
		Decision  struct {
			Symbol string `json:"symbol"`
			Signal string `json:"signal"`
		} `json:"decision"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SessionID == "" || rec.Header().Get(HeaderSessionID) != res.SessionID {
		t.Fatalf("session id not returned: body=%q header=%q", res.SessionID, rec.Header().Get(HeaderSessionID))
	}
	if res.Decision.Symbol != "TCS" || res.Decision.Signal != "BUY" || res.FromCache {
		t.Fatalf("unexpected analysis %+v", res)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/analysis/TCS?session="+res.SessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second analyse status = %d", rec.Code)
	}
	var again struct {
		SessionID string `json:"session_id"`
		FromCache bool   `json:"from_cache"`
	}
	_ = json.Unmarshal(env.Data, &again)
	if again.SessionID != res.SessionID || !again.FromCache {
		t.Fatalf("second analyse = %+v", again)
	}
	if n := s.backend.decisions.Load(); n != 1 {
		t.Fatalf("decision fetched %d times, want 1", n)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/analysis/TCS?session="+res.SessionID, `{"models":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("hidden-models analyse status = %d", rec.Code)
	}
	var hidden struct {
		Decision struct {
			Chart  []json.RawMessage `json:"chart"`
			Models []json.RawMessage `json:"models"`
		} `json:"decision"`
	}
	_ = json.Unmarshal(env.Data, &hidden)
	if len(hidden.Decision.Chart) != 0 || len(hidden.Decision.Models) != 0 {
		t.Fatalf("every series hidden, got %s", env.Data)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/session/"+res.SessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}
	var sv struct {
		Symbol  string `json:"symbol"`
		Loading bool   `json:"loading"`
	}
	_ = json.Unmarshal(env.Data, &sv)
	if sv.Symbol != "TCS" || sv.Loading {
		t.Fatalf("session = %+v", sv)
	}
}

func TestAnalyseValidation(t *testing.T) {
	s := newTestServer(t, defaultRoutes(), nil)
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"bad symbol", "/api/v1/analysis/TC%20S", "", http.StatusBadRequest},
		{"unknown model", "/api/v1/analysis/TCS", `{"models":["lstm"]}`, http.StatusBadRequest},
		{"unknown symbol upstream", "/api/v1/analysis/NOPE", "", http.StatusNotFound},
		{"unknown session", "/api/v1/session/missing", "", http.StatusNotFound},
		{"archive disabled", "/api/v1/analysis/TCS/history", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		method := http.MethodPost
		if strings.HasPrefix(tt.target, "/api/v1/session") || strings.HasSuffix(tt.target, "/history") {
			method = http.MethodGet
		}
		rec, _ := s.do(t, method, tt.target, tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestAnalyseRateLimited(t *testing.T) {
	l := ratelimit.New(0.01, 1, time.Minute)
	s := newTestServer(t, defaultRoutes(), l.Middleware())

	if rec, _ := s.do(t, http.MethodPost, "/api/v1/analysis/TCS", ""); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec, _ := s.do(t, http.MethodPost, "/api/v1/analysis/TCS", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/analysis/TCS/status", ""); rec.Code != http.StatusOK {
		t.Fatalf("status route must not be limited, got %d", rec.Code)
	}
}
