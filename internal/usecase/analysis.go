package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/services/shaping"
	"MarketDash/pkg/cache"
	xlogger "MarketDash/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// SlowHintAfter is the elapsed time after which an uncached analysis is
// reported as a slow first fit.
const SlowHintAfter = 5 * time.Second

// ErrArchiveDisabled is returned by History when no archive is configured.
var ErrArchiveDisabled = errors.New("decision archive disabled")

// DecisionSink receives completed analyses.
type DecisionSink interface {
	Process(ctx context.Context, ev *models.DecisionEvent) error
}

// AnalysisUseCase runs the analyse action: check the forecast cache, fetch
// the combined decision and shape it for the chart.
type AnalysisUseCase struct {
	backend  domrepo.MarketBackend
	cache    cache.Service
	ttl      time.Duration
	sessions *SessionStore
	archive  domrepo.DecisionArchive
	sink     DecisionSink
	metrics  domrepo.Metrics
	logger   *xlogger.Logger
	group    singleflight.Group
	tick     time.Duration
	now      func() time.Time
}

type AnalysisOption func(*AnalysisUseCase)

// WithDecisionCache caches raw decisions for ttl.
func WithDecisionCache(c cache.Service, ttl time.Duration) AnalysisOption {
	return func(u *AnalysisUseCase) {
		u.cache = c
		u.ttl = ttl
	}
}

// WithArchive enables the history query.
func WithArchive(a domrepo.DecisionArchive) AnalysisOption {
	return func(u *AnalysisUseCase) { u.archive = a }
}

// WithDecisionSink forwards completed analyses.
func WithDecisionSink(s DecisionSink) AnalysisOption {
	return func(u *AnalysisUseCase) { u.sink = s }
}

func NewAnalysisUseCase(backend domrepo.MarketBackend, sessions *SessionStore, metrics domrepo.Metrics, logger *xlogger.Logger, opts ...AnalysisOption) *AnalysisUseCase {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	u := &AnalysisUseCase{
		backend:  backend,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		tick:     time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Analyse runs one analyse action for the session (a new session is created
// when sessionID is empty or unknown) and returns the view with the session id
// used. A nil modelNames shows every series; an empty one hides them all.
func (u *AnalysisUseCase) Analyse(ctx context.Context, sessionID, symbol string, modelNames []string) (models.AnalysisView, string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	state := u.sessions.Acquire(sessionID)
	start := u.now()
	seq := state.Begin(symbol, start)

	status, err := u.backend.ForecastStatus(ctx, symbol)
	if err != nil {
		u.logger.Warn("forecast status check failed", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	// Only a cold fit reports progress.
	if !status.Cached {
		stop := u.startTicker(state, seq, start)
		defer stop()
	}

	decision, hit, err := u.decision(ctx, symbol)
	if err != nil {
		state.Fail(seq, err, u.now())
		u.metrics.RecordError("analysis")
		return models.AnalysisView{}, state.ID(), fmt.Errorf("analyse %s: %w", symbol, err)
	}

	elapsed := u.now().Sub(start)
	fromCache := status.Cached || hit
	view := models.AnalysisView{
		Decision:  shaping.BuildDecisionSummary(decision, visibleSeries(modelNames)),
		FromCache: fromCache,
		Elapsed:   int(elapsed / time.Second),
		SlowHint:  !fromCache && elapsed >= SlowHintAfter,
	}
	if !state.Complete(seq, view, u.now()) {
		u.logger.Debug("discarding superseded analysis", xlogger.String("symbol", symbol), xlogger.String("session", state.ID()), xlogger.Uint64("seq", seq))
	}
	u.logger.Debug("analysis complete",
		xlogger.String("symbol", symbol),
		xlogger.String("signal", string(view.Decision.Signal)),
		xlogger.Float64("confidence_pct", view.Decision.ConfidencePct),
		xlogger.Bool("from_cache", fromCache),
	)

	u.metrics.RecordDecision(string(view.Decision.Signal))
	u.metrics.RecordLatency("analysis", elapsed.Seconds())
	u.emit(ctx, view, elapsed)
	return view, state.ID(), nil
}

// decision fetches the combined decision once per symbol across concurrent
// callers. The shared call is detached from any single caller's cancellation.
func (u *AnalysisUseCase) decision(ctx context.Context, symbol string) (models.Decision, bool, error) {
	type result struct {
		d   models.Decision
		hit bool
	}
	ch := u.group.DoChan(symbol, func() (interface{}, error) {
		sctx := context.WithoutCancel(ctx)
		load := func(c context.Context) (models.Decision, error) { return u.backend.Decision(c, symbol) }
		if u.cache == nil || u.ttl <= 0 {
			d, err := load(sctx)
			return result{d: d}, err
		}
		d, hit, err := cache.Remember(sctx, u.cache, cache.Key("decision", symbol), u.ttl, load)
		u.metrics.RecordCache("decision", hit)
		return result{d: d, hit: hit}, err
	})
	select {
	case <-ctx.Done():
		return models.Decision{}, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return models.Decision{}, false, r.Err
		}
		res := r.Val.(result)
		return res.d, res.hit, nil
	}
}

// startTicker updates the session's elapsed seconds until the returned stop
// function is called.
func (u *AnalysisUseCase) startTicker(state *ViewState, seq uint64, start time.Time) func() {
	ticker := time.NewTicker(u.tick)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				state.Tick(seq, int(u.now().Sub(start)/time.Second))
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func (u *AnalysisUseCase) emit(ctx context.Context, view models.AnalysisView, elapsed time.Duration) {
	if u.sink == nil {
		return
	}
	d := view.Decision
	ev := &models.DecisionEvent{
		Symbol:            d.Symbol,
		Signal:            d.Signal,
		ConfidencePct:     d.ConfidencePct,
		ForecastDirection: d.ForecastDirection,
		SentimentLabel:    string(d.SentimentLabel),
		SentimentScore:    d.SentimentScore,
		LastPrice:         d.LastPrice,
		FromCache:         view.FromCache,
		ElapsedMS:         elapsed.Milliseconds(),
		Timestamp:         u.now().UTC(),
	}
	if err := u.sink.Process(context.WithoutCancel(ctx), ev); err != nil {
		u.logger.Warn("decision event not recorded", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
	}
}

// Status asks whether the upstream holds a fitted forecast for symbol.
func (u *AnalysisUseCase) Status(ctx context.Context, symbol string) (models.ForecastStatus, error) {
	return u.backend.ForecastStatus(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// History returns archived decisions for symbol, newest first.
func (u *AnalysisUseCase) History(ctx context.Context, symbol string, limit int) ([]models.DecisionEvent, error) {
	if u.archive == nil {
		return nil, ErrArchiveDisabled
	}
	evs, err := u.archive.Query(ctx, strings.ToUpper(symbol), time.Time{}, u.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("decision history: %w", err)
	}
	if evs == nil {
		evs = []models.DecisionEvent{}
	}
	return evs, nil
}

// Session returns the snapshot of one session.
func (u *AnalysisUseCase) Session(id string) (models.SessionView, error) {
	s, err := u.sessions.Get(id)
	if err != nil {
		return models.SessionView{}, err
	}
	return s.Snapshot(), nil
}

func visibleSeries(names []string) []shaping.SeriesKey {
	if names == nil {
		return nil
	}
	keys := make([]shaping.SeriesKey, 0, len(names))
	for _, n := range names {
		if k, ok := shaping.ParseSeriesKey(strings.ToLower(n)); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
