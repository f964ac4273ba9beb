package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
)

var errBoom = errors.New("boom")

// fakeBackend answers from fields; a non-nil error field fails that call.
type fakeBackend struct {
	mu sync.Mutex

	quote     models.IndexQuote
	quoteErr  error
	history   []models.IndexPoint
	histErr   error
	movers    models.MoversSnapshot
	insights  models.MarketInsights
	insErr    error
	most      models.MostActive
	live      models.LiveQuotes
	top       models.TopStocks
	status    models.ForecastStatus
	statusErr error
	decision  models.Decision
	decErr    error
	decDelay  time.Duration

	calls map[string]int
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) IndexQuote(context.Context) (models.IndexQuote, error) {
	f.hit("quote")
	return f.quote, f.quoteErr
}

func (f *fakeBackend) IndexHistory(context.Context, domrepo.Period) ([]models.IndexPoint, error) {
	f.hit("history")
	return f.history, f.histErr
}

func (f *fakeBackend) Movers(context.Context) (models.MoversSnapshot, error) {
	f.hit("movers")
	return f.movers, nil
}

func (f *fakeBackend) Insights(context.Context) (models.MarketInsights, error) {
	f.hit("insights")
	return f.insights, f.insErr
}

func (f *fakeBackend) MostActive(context.Context) (models.MostActive, error) {
	f.hit("most")
	return f.most, nil
}

func (f *fakeBackend) LiveQuotes(context.Context, bool) (models.LiveQuotes, error) {
	f.hit("live")
	return f.live, nil
}

func (f *fakeBackend) TopStocks(context.Context) (models.TopStocks, error) {
	f.hit("top")
	return f.top, nil
}

func (f *fakeBackend) ForecastStatus(context.Context, string) (models.ForecastStatus, error) {
	f.hit("status")
	return f.status, f.statusErr
}

func (f *fakeBackend) Decision(ctx context.Context, symbol string) (models.Decision, error) {
	f.hit("decision")
	if f.decDelay > 0 {
		select {
		case <-time.After(f.decDelay):
		case <-ctx.Done():
			return models.Decision{}, ctx.Err()
		}
	}
	d := f.decision
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	return d, f.decErr
}

func (f *fakeBackend) Sentiment(context.Context, string) (models.Sentiment, error) {
	f.hit("sentiment")
	return models.Sentiment{}, nil
}

func (f *fakeBackend) SymbolHistory(context.Context, string, domrepo.Period) (models.SymbolHistory, error) {
	f.hit("symbol_history")
	return models.SymbolHistory{}, nil
}

type fakeMetrics struct {
	domrepo.NopMetrics
	mu       sync.Mutex
	stale    map[string]int
	refresh  map[string]int
	failures map[string]int
	cache    map[bool]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stale: map[string]int{}, refresh: map[string]int{}, failures: map[string]int{}, cache: map[bool]int{}}
}

func (m *fakeMetrics) RecordStaleDiscard(w string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale[w]++
}

func (m *fakeMetrics) RecordRefresh(w string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.refresh[w]++
	} else {
		m.failures[w]++
	}
}

func (m *fakeMetrics) RecordCache(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[hit]++
}

type captureSink struct {
	mu     sync.Mutex
	events []models.DecisionEvent
	err    error
}

func (s *captureSink) Process(_ context.Context, ev *models.DecisionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *ev)
	return s.err
}

type captureHub struct {
	mu     sync.Mutex
	frames []models.TickerFrame
}

func (h *captureHub) Broadcast(f models.TickerFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, f)
}

func ptr(v float64) *float64 { return &v }
