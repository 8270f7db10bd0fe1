package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	corruptions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_evaluations_total",
				Help: "Total number of composite signal evaluations",
			},
			[]string{"symbol", "signal"},
		),
		fallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_fallbacks_total",
				Help: "Z-score computations that used fallback statistics",
			},
			[]string{"kind", "reason"},
		),
		corruptions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_corruption_detected_total",
				Help: "Historical series flagged as corrupted by the validator",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records one finished composite evaluation.
func (r *Recorder) RecordEvaluation(symbol, signal string) {
	r.evaluations.WithLabelValues(symbol, signal).Inc()
}

// RecordFallback records a z-score that used fallback statistics.
func (r *Recorder) RecordFallback(kind, reason string) {
	r.fallbacks.WithLabelValues(kind, reason).Inc()
}

// RecordCorruption records a corrupted historical series.
func (r *Recorder) RecordCorruption(kind string) {
	r.corruptions.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
