package repository

import (
	"context"
	"time"

	"MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	pkgkafka "MarketDash/pkg/kafka"
)

// KafkaPublisher implements EventPublisher for Kafka. Events are keyed by
// symbol so one symbol's history stays in one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishDecision(ctx context.Context, ev models.DecisionEvent) error {
	m := decisionMessage(ev)
	return p.producer.Publish(ctx, p.topic, m.Key, m.Value)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, evs []models.DecisionEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(evs))
	for i, ev := range evs {
		msgs[i] = decisionMessage(ev)
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close is a no-op; the producer is shared with the log collector and
// closed by the app.
func (p *KafkaPublisher) Close() error { return nil }

func decisionMessage(ev models.DecisionEvent) pkgkafka.Message {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return pkgkafka.Message{Key: []byte(ev.Symbol), Value: ev}
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)
