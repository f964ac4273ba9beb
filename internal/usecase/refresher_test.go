package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"MarketDash/internal/domain/models"
)

func TestWidgetSequenceGuard(t *testing.T) {
	var w widget[int]
	older := w.begin()
	newer := w.begin()

	if !w.apply(newer, 2) {
		t.Fatal("newest response must apply")
	}
	if w.apply(older, 1) {
		t.Fatal("older response must be discarded")
	}
	v, seq, ok := w.latest()
	if !ok || v != 2 || seq != newer {
		t.Fatalf("latest = %d seq=%d ok=%v", v, seq, ok)
	}
}

func TestRefreshNowBroadcastsAndFilters(t *testing.T) {
	fb := &fakeBackend{
		quote: models.IndexQuote{Value: 21700, ChangePct: -0.3},
		live: models.LiveQuotes{Stocks: []models.Quote{
			{Symbol: "TCS", ChangePct: 1.5},
			{Symbol: "INFY", ChangePct: -2.5},
			{Symbol: "WIPRO", ChangePct: 0.1},
		}},
	}
	hub := &captureHub{}
	m := newFakeMetrics()
	r := NewRefresher(fb, hub, m, nil, time.Minute, []string{"tcs", "INFY"})

	r.RefreshNow(context.Background())

	if len(hub.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(hub.frames))
	}
	frames := r.Snapshot()
	if len(frames) != 2 {
		t.Fatalf("snapshot frames = %d", len(frames))
	}
	var quotes models.TickerFrame
	for _, f := range frames {
		if f.Type == WidgetQuotes {
			quotes = f
		}
	}
	if len(quotes.Quotes) != 2 || quotes.Quotes[1].Heat != models.HeatNegative {
		t.Fatalf("watchlist not applied: %+v", quotes.Quotes)
	}
	if m.refresh[WidgetIndex] != 1 || m.refresh[WidgetQuotes] != 1 {
		t.Fatalf("refresh metrics = %v", m.refresh)
	}
}

func TestRefreshFailureKeepsLastValue(t *testing.T) {
	fb := &fakeBackend{quote: models.IndexQuote{Value: 100}}
	m := newFakeMetrics()
	r := NewRefresher(fb, nil, m, nil, time.Minute, nil)

	r.RefreshNow(context.Background())
	fb.quoteErr = errBoom
	r.RefreshNow(context.Background())

	q, _, ok := r.index.latest()
	if !ok || q.Value != 100 {
		t.Fatalf("last good value lost: %+v", q)
	}
	if m.failures[WidgetIndex] != 1 {
		t.Fatalf("failures = %v", m.failures)
	}
}

// gatedBackend blocks the first index quote call until released.
type gatedBackend struct {
	*fakeBackend
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedBackend) IndexQuote(ctx context.Context) (models.IndexQuote, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
		return models.IndexQuote{Value: 1}, nil
	}
	return models.IndexQuote{Value: 2}, nil
}

func TestStaleResponseDiscarded(t *testing.T) {
	g := &gatedBackend{fakeBackend: &fakeBackend{}, entered: make(chan struct{}), release: make(chan struct{})}
	hub := &captureHub{}
	m := newFakeMetrics()
	r := NewRefresher(g, hub, m, nil, time.Minute, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.refreshIndex(context.Background())
	}()
	<-g.entered
	r.refreshIndex(context.Background())
	close(g.release)
	<-done

	q, seq, _ := r.index.latest()
	if q.Value != 2 || seq != 2 {
		t.Fatalf("latest = %+v seq=%d, want the newer response", q, seq)
	}
	if m.stale[WidgetIndex] != 1 {
		t.Fatalf("stale discards = %v", m.stale)
	}
	if len(hub.frames) != 1 {
		t.Fatalf("stale response must not be broadcast, frames=%d", len(hub.frames))
	}
}

func TestRefresherStartStop(t *testing.T) {
	fb := &fakeBackend{quote: models.IndexQuote{Value: 1}}
	hub := &captureHub{}
	r := NewRefresher(fb, hub, nil, nil, time.Hour, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for fb.count("quote") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(r.cron.Entries()) != 0 {
		t.Fatal("schedule entry not released")
	}
	if fb.count("quote") != 1 {
		t.Fatalf("initial refresh count = %d", fb.count("quote"))
	}
}
