package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketDash/internal/domain/models"
	drepo "MarketDash/internal/domain/repository"
	"MarketDash/pkg/config"
)

// DecisionRecorder routes decision events to the configured archive backend.
type DecisionRecorder struct {
	pub     drepo.EventPublisher
	store   drepo.DecisionArchive
	metrics drepo.Metrics
	backend string
}

// NewDecisionRecorder creates a new DecisionRecorder instance.
func NewDecisionRecorder(pub drepo.EventPublisher, store drepo.DecisionArchive, metrics drepo.Metrics, backend string) *DecisionRecorder {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	return &DecisionRecorder{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process records a single event on the configured backend.
func (p *DecisionRecorder) Process(ctx context.Context, ev *models.DecisionEvent) error {
	if ev == nil {
		return fmt.Errorf("decision event is nil")
	}
	start := time.Now()
	var err error

	switch p.backend {
	case config.ArchiveKafka:
		err = p.pub.PublishDecision(ctx, *ev)
	case config.ArchiveClickHouse:
		err = p.store.Store(ctx, *ev)
	case config.ArchiveNone, "":
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("record_decision")
		return fmt.Errorf("record decision: %w", err)
	}
	p.metrics.RecordLatency("record_decision", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *DecisionRecorder) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
