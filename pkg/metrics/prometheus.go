package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	standard *Recorder
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	requests    *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	uploadBytes prometheus.Histogram
}

// Default returns the recorder registered on the default Prometheus registry.
func Default() *Recorder {
	once.Do(func() {
		standard = New(prometheus.DefaultRegisterer)
	})
	return standard
}

// New creates a recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganttgen_llm_requests_total",
				Help: "Total number of completed LLM requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganttgen_llm_attempts_total",
				Help: "Total number of LLM call attempts, retries included",
			},
			[]string{"operation"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganttgen_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ganttgen_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		uploadBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ganttgen_upload_bytes",
				Help:    "Size of research uploads per request",
				Buckets: prometheus.ExponentialBuckets(1<<10, 4, 8),
			},
		),
	}
}

// RecordCompletion records the final outcome of an LLM request.
func (r *Recorder) RecordCompletion(op, outcome string) {
	r.requests.WithLabelValues(op, outcome).Inc()
}

// RecordAttempt records a single LLM call attempt.
func (r *Recorder) RecordAttempt(op string) {
	r.attempts.WithLabelValues(op).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordUploadBytes records the combined size of one upload.
func (r *Recorder) RecordUploadBytes(n int) {
	r.uploadBytes.Observe(float64(n))
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordCompletion(string, string) {}
func (Nop) RecordAttempt(string) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordUploadBytes(int) {}
