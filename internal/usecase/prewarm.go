package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domrepo "MarketDash/internal/domain/repository"
	xlogger "MarketDash/pkg/logger"
	"MarketDash/pkg/queue"
)

// PrewarmJobType is the queue message type for forecast prewarming.
const PrewarmJobType = "forecast.prewarm"

// PrewarmPayload names the symbol to warm.
type PrewarmPayload struct {
	Symbol string `json:"symbol"`
}

// PrewarmJob asks the upstream to fit a forecast ahead of the first analyse
// action. Symbols already cached upstream are skipped.
type PrewarmJob struct {
	backend domrepo.MarketBackend
	logger  *xlogger.Logger
}

func NewPrewarmJob(backend domrepo.MarketBackend, logger *xlogger.Logger) *PrewarmJob {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PrewarmJob{backend: backend, logger: logger}
}

func (j *PrewarmJob) Name() string { return "forecast-prewarm" }
func (j *PrewarmJob) Type() string { return PrewarmJobType }

func (j *PrewarmJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[PrewarmPayload](payload)
	if err != nil {
		return err
	}
	if p.Symbol == "" {
		return fmt.Errorf("prewarm payload without symbol")
	}
	st, err := j.backend.ForecastStatus(ctx, p.Symbol)
	if err == nil && st.Cached {
		j.logger.Debug("forecast already cached", xlogger.String("symbol", p.Symbol), xlogger.String("source", st.Source))
		return nil
	}
	start := time.Now()
	if _, err := j.backend.Decision(ctx, p.Symbol); err != nil {
		return fmt.Errorf("prewarm %s: %w", p.Symbol, err)
	}
	j.logger.Info("forecast prewarmed", xlogger.String("symbol", p.Symbol), xlogger.Duration("took", time.Since(start)))
	return nil
}

// PrewarmQueue is the part of the job queue the prewarmer needs.
type PrewarmQueue interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
	EnqueueUnique(ctx context.Context, msgType, dedupeKey string, ttl time.Duration, payload interface{}) error
}

// Prewarmer enqueues the top ranked symbols for forecast prewarming.
type Prewarmer struct {
	backend   domrepo.MarketBackend
	queue     PrewarmQueue
	logger    *xlogger.Logger
	topN      int
	dedupeTTL time.Duration
}

func NewPrewarmer(backend domrepo.MarketBackend, q PrewarmQueue, logger *xlogger.Logger, topN int, dedupeTTL time.Duration) *Prewarmer {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if topN <= 0 {
		topN = 5
	}
	return &Prewarmer{backend: backend, queue: q, logger: logger, topN: topN, dedupeTTL: dedupeTTL}
}

// Run enqueues up to topN symbols and returns how many were enqueued.
// Symbols enqueued within the dedupe window are skipped unless force is set;
// a forced run enqueues every candidate and does not claim the window.
func (p *Prewarmer) Run(ctx context.Context, force bool) (int, error) {
	ts, err := p.backend.TopStocks(ctx)
	if err != nil {
		return 0, fmt.Errorf("prewarm top stocks: %w", err)
	}
	src := ts.Top5
	if len(src) < p.topN {
		src = ts.Top10
	}
	if len(src) < p.topN && len(ts.AllRanked) > len(src) {
		src = ts.AllRanked
	}
	if len(src) > p.topN {
		src = src[:p.topN]
	}

	n := 0
	for _, s := range src {
		payload := PrewarmPayload{Symbol: s.Symbol}
		var err error
		if force {
			err = p.queue.Enqueue(ctx, PrewarmJobType, payload)
		} else {
			err = p.queue.EnqueueUnique(ctx, PrewarmJobType, "prewarm:"+s.Symbol, p.dedupeTTL, payload)
		}
		switch {
		case errors.Is(err, queue.ErrDuplicate):
			continue
		case err != nil:
			return n, fmt.Errorf("enqueue prewarm %s: %w", s.Symbol, err)
		}
		n++
	}
	p.logger.Info("prewarm enqueued", xlogger.Int("count", n), xlogger.Int("candidates", len(src)), xlogger.Bool("forced", force))
	return n, nil
}
