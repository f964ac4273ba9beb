package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketDash/internal/domain/models"
	"MarketDash/pkg/cache"
)

type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

func newAnalysis(fb *fakeBackend, step time.Duration, opts ...AnalysisOption) (*AnalysisUseCase, *SessionStore) {
	store := NewSessionStore(time.Hour)
	u := NewAnalysisUseCase(fb, store, nil, nil, opts...)
	clk := &stepClock{t: time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC), step: step}
	u.now = clk.now
	u.tick = time.Hour
	return u, store
}

func sampleDecision() models.Decision {
	return models.Decision{
		Symbol:            "TCS",
		DisplayName:       "Tata Consultancy Services",
		Signal:            "buy",
		ConfidencePct:     4.2,
		ForecastDirection: "UP",
		LastPrice:         100,
		SentimentLabel:    "POSITIVE",
		History:           []models.TimeSeriesPoint{{Date: "2024-01-01", Price: ptr(100)}},
		ForecastARIMA:     []models.TimeSeriesPoint{{Date: "2024-01-02", Price: ptr(110), Lower: ptr(105), Upper: ptr(115)}},
	}
}

func TestAnalyseShapesDecision(t *testing.T) {
	fb := &fakeBackend{decision: sampleDecision()}
	sink := &captureSink{}
	u, _ := newAnalysis(fb, time.Second, WithDecisionSink(sink))

	v, sid, err := u.Analyse(context.Background(), "", " tcs ", nil)
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if sid == "" {
		t.Fatal("a session id must be issued")
	}
	d := v.Decision
	if d.Signal != models.SignalBuy || d.Style.Signal != models.SignalBuy {
		t.Fatalf("signal = %s style = %+v", d.Signal, d.Style)
	}
	if len(d.Chart) != 2 || d.Chart[1].Has("h") || !d.Chart[1].Has("a_hi") {
		t.Fatalf("chart = %+v", d.Chart)
	}
	if len(d.Models) != 1 || d.Models[0].PercentChange != 10 {
		t.Fatalf("models = %+v", d.Models)
	}
	if len(sink.events) != 1 || sink.events[0].Symbol != "TCS" || sink.events[0].Signal != models.SignalBuy {
		t.Fatalf("events = %+v", sink.events)
	}

	snap, err := u.Session(sid)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if snap.Loading || snap.Decision == nil || snap.Symbol != "TCS" {
		t.Fatalf("session = %+v", snap)
	}
}

func TestAnalyseModelVisibility(t *testing.T) {
	fb := &fakeBackend{decision: sampleDecision()}
	u, _ := newAnalysis(fb, time.Second)

	v, _, err := u.Analyse(context.Background(), "", "TCS", []string{"history"})
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if len(v.Decision.Chart) != 1 || len(v.Decision.Models) != 0 {
		t.Fatalf("hidden models leaked: chart=%+v models=%+v", v.Decision.Chart, v.Decision.Models)
	}

	v, _, err = u.Analyse(context.Background(), "", "TCS", []string{})
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if len(v.Decision.Chart) != 0 || len(v.Decision.Models) != 0 {
		t.Fatalf("every series hidden: chart=%+v models=%+v", v.Decision.Chart, v.Decision.Models)
	}

	v, _, err = u.Analyse(context.Background(), "", "TCS", nil)
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if len(v.Decision.Chart) != 2 || len(v.Decision.Models) != 1 {
		t.Fatalf("no selection must show every series: chart=%+v models=%+v", v.Decision.Chart, v.Decision.Models)
	}
}

func TestAnalyseSlowHint(t *testing.T) {
	tests := []struct {
		name     string
		cached   bool
		wantHint bool
	}{
		{"cold fit", false, true},
		{"cached upstream", true, false},
	}
	for _, tt := range tests {
		fb := &fakeBackend{decision: sampleDecision(), status: models.ForecastStatus{Cached: tt.cached}}
		u, _ := newAnalysis(fb, 6*time.Second)
		v, _, err := u.Analyse(context.Background(), "", "TCS", nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if v.SlowHint != tt.wantHint || v.FromCache != tt.cached {
			t.Fatalf("%s: hint=%v fromCache=%v", tt.name, v.SlowHint, v.FromCache)
		}
		if v.Elapsed < 5 {
			t.Fatalf("%s: elapsed = %d", tt.name, v.Elapsed)
		}
	}
}

func TestAnalyseDecisionCache(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	fb := &fakeBackend{decision: sampleDecision()}
	u, _ := newAnalysis(fb, time.Second, WithDecisionCache(mc, time.Minute))
	ctx := context.Background()

	first, _, err := u.Analyse(ctx, "", "TCS", nil)
	if err != nil || first.FromCache {
		t.Fatalf("first: fromCache=%v err=%v", first.FromCache, err)
	}
	second, _, err := u.Analyse(ctx, "", "TCS", nil)
	if err != nil || !second.FromCache {
		t.Fatalf("second: fromCache=%v err=%v", second.FromCache, err)
	}
	if fb.count("decision") != 1 {
		t.Fatalf("decision fetched %d times", fb.count("decision"))
	}
}

func TestAnalyseSharesInFlightDecision(t *testing.T) {
	fb := &fakeBackend{decision: sampleDecision(), decDelay: 150 * time.Millisecond}
	u, _ := newAnalysis(fb, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := u.Analyse(context.Background(), "", "TCS", nil); err != nil {
				t.Errorf("analyse: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := fb.count("decision"); n != 1 {
		t.Fatalf("decision fetched %d times, want 1", n)
	}
}

func TestAnalyseFailureRecordedOnSession(t *testing.T) {
	fb := &fakeBackend{decErr: errBoom, statusErr: errBoom}
	u, _ := newAnalysis(fb, time.Second)

	_, sid, err := u.Analyse(context.Background(), "", "TCS", nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("want upstream error, got %v", err)
	}
	snap, _ := u.Session(sid)
	if snap.Loading || snap.Error == "" || snap.Decision != nil {
		t.Fatalf("session = %+v", snap)
	}
}

func TestTickerStops(t *testing.T) {
	fb := &fakeBackend{}
	u, store := newAnalysis(fb, time.Second)
	u.tick = 2 * time.Millisecond

	state := store.Acquire("")
	start := u.now()
	seq := state.Begin("TCS", start)
	stop := u.startTicker(state, seq, start)

	deadline := time.Now().Add(time.Second)
	for state.Snapshot().Elapsed == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if state.Snapshot().Elapsed == 0 {
		t.Fatal("ticker never updated elapsed")
	}
	stop()
	time.Sleep(5 * time.Millisecond)
	frozen := state.Snapshot().Elapsed
	time.Sleep(20 * time.Millisecond)
	if got := state.Snapshot().Elapsed; got != frozen {
		t.Fatalf("elapsed moved after stop: %d -> %d", frozen, got)
	}
}

func TestTickerRunsOnlyForColdFits(t *testing.T) {
	tests := []struct {
		name      string
		cached    bool
		wantTicks bool
	}{
		{"cold fit", false, true},
		{"cached upstream", true, false},
	}
	for _, tt := range tests {
		fb := &fakeBackend{
			decision: sampleDecision(),
			decDelay: 60 * time.Millisecond,
			status:   models.ForecastStatus{Cached: tt.cached},
		}
		u, store := newAnalysis(fb, time.Second)
		u.tick = time.Millisecond
		state := store.Acquire("")

		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, _, err := u.Analyse(context.Background(), state.ID(), "TCS", nil); err != nil {
				t.Errorf("%s: analyse: %v", tt.name, err)
			}
		}()

		ticked := false
	wait:
		for {
			select {
			case <-done:
				break wait
			default:
				if snap := state.Snapshot(); snap.Loading && snap.Elapsed > 0 {
					ticked = true
				}
				time.Sleep(time.Millisecond)
			}
		}
		if ticked != tt.wantTicks {
			t.Fatalf("%s: ticked = %v, want %v", tt.name, ticked, tt.wantTicks)
		}
	}
}

func TestHistoryRequiresArchive(t *testing.T) {
	u, _ := newAnalysis(&fakeBackend{}, time.Second)
	if _, err := u.History(context.Background(), "TCS", 10); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("want ErrArchiveDisabled, got %v", err)
	}
}
