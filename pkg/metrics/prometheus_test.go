package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordUpstream("decision", 0.2, nil)
	r.RecordUpstream("decision", 0.4, errors.New("boom"))
	r.RecordStaleDiscard("overview")
	r.RecordStaleDiscard("overview")
	r.RecordRefresh("quotes", false)
	r.RecordCache("memory", true)
	r.RecordDecision("BUY")
	r.SetStreamClients(3)

	if got := testutil.ToFloat64(r.upstreamErrors.WithLabelValues("decision")); got != 1 {
		t.Fatalf("upstream errors = %v", got)
	}
	if got := testutil.ToFloat64(r.staleDiscards.WithLabelValues("overview")); got != 2 {
		t.Fatalf("stale discards = %v", got)
	}
	if got := testutil.ToFloat64(r.refreshTotal.WithLabelValues("quotes", "error")); got != 1 {
		t.Fatalf("refresh errors = %v", got)
	}
	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("memory", "hit")); got != 1 {
		t.Fatalf("cache hits = %v", got)
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("BUY")); got != 1 {
		t.Fatalf("decisions = %v", got)
	}
	if got := testutil.ToFloat64(r.streamClients); got != 3 {
		t.Fatalf("stream clients = %v", got)
	}
}
