package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	pkgkafka "MarketDash/pkg/kafka"
)

// ArchiveHandler consumes decision events from Kafka and writes them to storage.
type ArchiveHandler struct {
	topic   string
	storage domrepo.DecisionArchive
	metrics domrepo.Metrics
}

func NewArchiveHandler(topic string, storage domrepo.DecisionArchive, metrics domrepo.Metrics) *ArchiveHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &ArchiveHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *ArchiveHandler) Topic() string { return h.topic }

func (h *ArchiveHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.DecisionEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode decision event: %w", err)
	}
	if ev.Symbol == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("decision event without symbol")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	h.metrics.RecordLatency("archive_e2e_seconds", time.Since(ev.Timestamp).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, ev)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*ArchiveHandler)(nil)
