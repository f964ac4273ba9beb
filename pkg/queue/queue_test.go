package queue

import (
	"encoding/json"
	"testing"
)

type prewarmPayload struct {
	Symbol string `json:"symbol"`
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[prewarmPayload](json.RawMessage(`{"symbol":"TCS"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Symbol != "TCS" {
		t.Fatalf("symbol = %q", p.Symbol)
	}

	if _, err := ParsePayload[prewarmPayload](nil); err == nil {
		t.Fatal("empty payload must fail")
	}
	if _, err := ParsePayload[prewarmPayload](json.RawMessage(`{`)); err == nil {
		t.Fatal("bad json must fail")
	}
}

func TestNewMessageEnvelope(t *testing.T) {
	data, err := newMessage("prewarm.decision", prewarmPayload{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type != "prewarm.decision" || m.ID == "" || m.Attempts != 0 {
		t.Fatalf("envelope = %+v", m)
	}
	p, err := ParsePayload[prewarmPayload](m.Payload)
	if err != nil || p.Symbol != "INFY" {
		t.Fatalf("payload = %+v, %v", p, err)
	}
}

func TestKeys(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, WithKeyPrefix("md:q"))
	if q.queueKey() != "md:q:messages" || q.retryKey() != "md:q:retry" || q.deadLetterKey() != "md:q:dlq" {
		t.Fatalf("unexpected keys")
	}
	if q.dedupeKey("TCS") != "md:q:dedupe:TCS" {
		t.Fatalf("dedupe key = %s", q.dedupeKey("TCS"))
	}
	if q.config.Workers != 1 {
		t.Fatalf("workers default = %d", q.config.Workers)
	}
}
