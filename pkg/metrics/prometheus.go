package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the dashboard Metrics port on Prometheus.
type Recorder struct {
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	refreshTotal    *prometheus.CounterVec
	staleDiscards   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	streamClients   prometheus.Gauge
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdash_upstream_request_seconds",
				Help:    "Latency of calls to the analytics backend",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_upstream_errors_total",
				Help: "Failed calls to the analytics backend",
			},
			[]string{"endpoint"},
		),
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_refresh_total",
				Help: "Widget refresh cycles by outcome",
			},
			[]string{"widget", "result"},
		),
		staleDiscards: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_stale_responses_discarded_total",
				Help: "Responses dropped because a newer request superseded them",
			},
			[]string{"widget"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_cache_lookups_total",
				Help: "Snapshot cache lookups",
			},
			[]string{"layer", "result"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_decisions_total",
				Help: "Decision summaries produced by signal",
			},
			[]string{"signal"},
		),
		streamClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketdash_stream_clients",
				Help: "Connected ticker stream clients",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdash_operation_duration_seconds",
				Help:    "Duration of internal operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstream records one backend call.
func (r *Recorder) RecordUpstream(endpoint string, seconds float64, err error) {
	r.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		r.upstreamErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordRefresh records a refresh cycle outcome for widget.
func (r *Recorder) RecordRefresh(widget string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.refreshTotal.WithLabelValues(widget, result).Inc()
}

// RecordStaleDiscard records a response dropped by the sequence guard.
func (r *Recorder) RecordStaleDiscard(widget string) {
	r.staleDiscards.WithLabelValues(widget).Inc()
}

// RecordCache records a cache lookup.
func (r *Recorder) RecordCache(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(layer, result).Inc()
}

// RecordDecision counts a produced signal.
func (r *Recorder) RecordDecision(signal string) {
	r.decisions.WithLabelValues(signal).Inc()
}

// SetStreamClients sets the connected client gauge.
func (r *Recorder) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
