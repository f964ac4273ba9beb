package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketDash/internal/domain/models"
)

type recordingProc struct {
	err  error
	seen []string
}

func (r *recordingProc) Process(_ context.Context, ev *models.DecisionEvent) error {
	if r.err != nil {
		return r.err
	}
	r.seen = append(r.seen, ev.Symbol)
	return nil
}

func event(sym string, ts time.Time) *models.DecisionEvent {
	return &models.DecisionEvent{Symbol: sym, Signal: models.SignalBuy, LastPrice: 100, Timestamp: ts}
}

func TestPipelineValidates(t *testing.T) {
	p := NewEventPipeline(&recordingProc{}, nil)
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil event must be rejected")
	}
	if err := p.Process(context.Background(), &models.DecisionEvent{Symbol: "TCS"}); err == nil {
		t.Fatal("missing timestamp must be rejected")
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewEventPipeline(proc, nil, WithMinGap(time.Second))
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	ctx := context.Background()

	_ = p.Process(ctx, event("TCS", now))
	_ = p.Process(ctx, event("TCS", now))
	_ = p.Process(ctx, event("INFY", now))
	now = now.Add(2 * time.Second)
	_ = p.Process(ctx, event("TCS", now))

	if len(proc.seen) != 3 {
		t.Fatalf("forwarded %v, want TCS, INFY, TCS", proc.seen)
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	proc := &recordingProc{err: errors.New("broker down")}
	p := NewEventPipeline(proc, nil, WithMinGap(0), WithBufferSize(1))
	ctx := context.Background()

	if err := p.Process(ctx, event("TCS", time.Now())); err == nil {
		t.Fatal("downstream failure must surface")
	}
	_ = p.Process(ctx, event("INFY", time.Now()))
	if p.Buffered() != 1 {
		t.Fatalf("buffered = %d, want 1 (second dropped)", p.Buffered())
	}
}
