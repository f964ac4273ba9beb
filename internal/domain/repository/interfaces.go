package repository

import (
	"context"
	"time"

	"MarketDash/internal/domain/models"
)

// MarketBackend is the read-only upstream market API.
type MarketBackend interface {
	IndexQuote(ctx context.Context) (models.IndexQuote, error)
	IndexHistory(ctx context.Context, period Period) ([]models.IndexPoint, error)
	Movers(ctx context.Context) (models.MoversSnapshot, error)
	Insights(ctx context.Context) (models.MarketInsights, error)
	MostActive(ctx context.Context) (models.MostActive, error)
	LiveQuotes(ctx context.Context, refresh bool) (models.LiveQuotes, error)
	TopStocks(ctx context.Context) (models.TopStocks, error)
	ForecastStatus(ctx context.Context, symbol string) (models.ForecastStatus, error)
	Decision(ctx context.Context, symbol string) (models.Decision, error)
	Sentiment(ctx context.Context, symbol string) (models.Sentiment, error)
	SymbolHistory(ctx context.Context, symbol string, period Period) (models.SymbolHistory, error)
}

// EventPublisher emits completed analyses to the archive pipeline.
type EventPublisher interface {
	PublishDecision(ctx context.Context, ev models.DecisionEvent) error
	Close() error
}

// DecisionArchive persists and reads back decision events.
type DecisionArchive interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, ev models.DecisionEvent) error
	StoreBatch(ctx context.Context, evs []models.DecisionEvent) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DecisionEvent, error)
	Health(ctx context.Context) error
	Close() error
}

// TickerBroadcaster pushes refreshed snapshots to live subscribers.
type TickerBroadcaster interface {
	Broadcast(frame models.TickerFrame)
}

type Metrics interface {
	RecordUpstream(endpoint string, seconds float64, err error)
	RecordRefresh(widget string, ok bool)
	RecordStaleDiscard(widget string)
	RecordCache(layer string, hit bool)
	RecordDecision(signal string)
	SetStreamClients(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RecordUpstream(string, float64, error) {}
func (NopMetrics) RecordRefresh(string, bool)            {}
func (NopMetrics) RecordStaleDiscard(string)             {}
func (NopMetrics) RecordCache(string, bool)              {}
func (NopMetrics) RecordDecision(string)                 {}
func (NopMetrics) SetStreamClients(int)                  {}
func (NopMetrics) RecordError(string)                    {}
func (NopMetrics) RecordLatency(string, float64)         {}
