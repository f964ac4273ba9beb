package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches []LogBatch
	err     error
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.(LogBatch))
	return p.err
}

func (p *capturePublisher) snapshot() []LogBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]LogBatch(nil), p.batches...)
}

func TestCollectorAggregatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "marketdash.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "upstream failed", map[string]interface{}{"endpoint": "movers"}, "usecase/dashboard.go:90")
	}
	c.AddLog("error", "upstream failed", map[string]interface{}{"endpoint": "quotes"}, "usecase/dashboard.go:90")
	if n := c.Pending(); n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}

	c.Close()
	batches := pub.snapshot()
	if len(batches) != 1 || len(batches[0].Entries) != 2 {
		t.Fatalf("batches = %+v", batches)
	}
	counts := map[interface{}]int{}
	for _, e := range batches[0].Entries {
		counts[e.Fields["endpoint"]] = e.Count
	}
	if counts["movers"] != 3 || counts["quotes"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if pub.topics[0] != "marketdash.logs" {
		t.Fatalf("topic = %s", pub.topics[0])
	}
}

func TestCollectorThresholdFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("warn", "a", nil, "x.go:1")
	c.AddLog("warn", "b", nil, "x.go:2")
	if n := c.Pending(); n != 0 {
		t.Fatalf("threshold must drain, pending = %d", n)
	}
	c.inflight.Wait()
	if got := pub.snapshot(); len(got) != 1 || len(got[0].Entries) != 2 {
		t.Fatalf("batches = %+v", got)
	}
}

func TestCollectorPublishErrorIsSwallowed(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	c.AddLog("error", "boom", nil, "x.go:1")
	c.Close()
	c.Close()
	if len(pub.snapshot()) != 1 {
		t.Fatal("publish must still be attempted once")
	}
}

func TestLoggerFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf).Level(zerolog.DebugLevel)}
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.Info("ignored")
	l.Warn("slow upstream", String("endpoint", "decision"))
	l.Error("upstream failed", Error(errors.New("502")))
	l.RemoveCollector()

	got := pub.snapshot()
	if len(got) != 1 || len(got[0].Entries) != 2 {
		t.Fatalf("batches = %+v", got)
	}
	if buf.Len() == 0 {
		t.Fatal("log lines must still be written")
	}
}
