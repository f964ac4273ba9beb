package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/services/shaping"
	xlogger "MarketDash/pkg/logger"

	"github.com/robfig/cron/v3"
)

const (
	WidgetIndex  = "index"
	WidgetQuotes = "quotes"
)

// widget holds the last applied value of one periodically refreshed view.
// Responses are applied only when their sequence is newer than the last
// applied one.
type widget[T any] struct {
	issued  atomic.Uint64
	mu      sync.Mutex
	applied uint64
	value   T
	ok      bool
}

func (w *widget[T]) begin() uint64 { return w.issued.Add(1) }

func (w *widget[T]) apply(seq uint64, v T) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq <= w.applied {
		return false
	}
	w.applied = seq
	w.value = v
	w.ok = true
	return true
}

func (w *widget[T]) latest() (T, uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value, w.applied, w.ok
}

// Refresher polls the index and watchlist widgets on a schedule and pushes
// applied snapshots to the ticker stream.
type Refresher struct {
	backend   domrepo.MarketBackend
	hub       domrepo.TickerBroadcaster
	metrics   domrepo.Metrics
	logger    *xlogger.Logger
	interval  time.Duration
	watchlist map[string]struct{}

	cron    *cron.Cron
	entry   cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool

	index  widget[models.IndexQuote]
	quotes widget[[]models.MoverRow]
}

func NewRefresher(backend domrepo.MarketBackend, hub domrepo.TickerBroadcaster, metrics domrepo.Metrics, logger *xlogger.Logger, interval time.Duration, watchlist []string) *Refresher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	wl := make(map[string]struct{}, len(watchlist))
	for _, s := range watchlist {
		wl[strings.ToUpper(s)] = struct{}{}
	}
	return &Refresher{
		backend:   backend,
		hub:       hub,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
		watchlist: wl,
		cron:      cron.New(),
	}
}

// Start runs one refresh immediately and then every interval until Stop.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return nil
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	id, err := r.cron.AddFunc("@every "+r.interval.String(), func() { r.RefreshNow(r.ctx) })
	if err != nil {
		r.running.Store(false)
		r.cancel()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	r.entry = id
	r.cron.Start()
	go r.RefreshNow(r.ctx)
	r.logger.Info("refresher started", xlogger.Duration("interval", r.interval))
	return nil
}

// Stop cancels in-flight refreshes, removes the schedule and waits for
// running jobs to return or ctx to expire.
func (r *Refresher) Stop(ctx context.Context) error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}
	r.cancel()
	r.cron.Remove(r.entry)
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshNow refreshes every widget concurrently.
func (r *Refresher) RefreshNow(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); r.refreshIndex(ctx) }()
	go func() { defer wg.Done(); r.refreshQuotes(ctx) }()
	wg.Wait()
}

func (r *Refresher) refreshIndex(ctx context.Context) {
	seq := r.index.begin()
	q, err := r.backend.IndexQuote(ctx)
	if err != nil {
		r.fail(WidgetIndex, err)
		return
	}
	if !r.index.apply(seq, q) {
		r.metrics.RecordStaleDiscard(WidgetIndex)
		return
	}
	r.metrics.RecordRefresh(WidgetIndex, true)
	r.broadcast(models.TickerFrame{Type: WidgetIndex, Sequence: seq, Index: &q, At: time.Now().UTC()})
}

func (r *Refresher) refreshQuotes(ctx context.Context) {
	seq := r.quotes.begin()
	lq, err := r.backend.LiveQuotes(ctx, false)
	if err != nil {
		r.fail(WidgetQuotes, err)
		return
	}
	rows := shaping.MoverRows(shaping.QuotesToMovers(r.filter(lq.Stocks)))
	if !r.quotes.apply(seq, rows) {
		r.metrics.RecordStaleDiscard(WidgetQuotes)
		return
	}
	r.metrics.RecordRefresh(WidgetQuotes, true)
	r.broadcast(models.TickerFrame{Type: WidgetQuotes, Sequence: seq, Quotes: rows, At: time.Now().UTC()})
}

func (r *Refresher) filter(quotes []models.Quote) []models.Quote {
	if len(r.watchlist) == 0 {
		return quotes
	}
	out := make([]models.Quote, 0, len(r.watchlist))
	for _, q := range quotes {
		if _, ok := r.watchlist[strings.ToUpper(q.Symbol)]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (r *Refresher) fail(widget string, err error) {
	r.metrics.RecordRefresh(widget, false)
	r.logger.Warn("widget refresh failed", xlogger.String("widget", widget), xlogger.Error(err))
}

func (r *Refresher) broadcast(f models.TickerFrame) {
	if r.hub != nil {
		r.hub.Broadcast(f)
	}
}

// Snapshot returns the latest applied frames, for new stream subscribers.
func (r *Refresher) Snapshot() []models.TickerFrame {
	var frames []models.TickerFrame
	if q, seq, ok := r.index.latest(); ok {
		frames = append(frames, models.TickerFrame{Type: WidgetIndex, Sequence: seq, Index: &q, At: time.Now().UTC()})
	}
	if rows, seq, ok := r.quotes.latest(); ok {
		frames = append(frames, models.TickerFrame{Type: WidgetQuotes, Sequence: seq, Quotes: rows, At: time.Now().UTC()})
	}
	return frames
}
