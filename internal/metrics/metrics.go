// Package metrics holds the Prometheus collectors for completion calls,
// pipeline runs and content fetches.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	completionRequests *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	pipelineRuns       *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	fetchAttempts      *prometheus.CounterVec
	storeOps           *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		completionRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookflow_completion_requests_total",
				Help: "Total number of text-completion requests.",
			},
			[]string{"provider", "model", "status"},
		),
		completionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookflow_completion_duration_seconds",
				Help:    "Histogram of text-completion request durations.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"provider", "model"},
		),
		pipelineRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookflow_pipeline_runs_total",
				Help: "Rewrite pipeline runs by outcome; failed_stage is empty on success.",
			},
			[]string{"status", "failed_stage"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookflow_pipeline_stage_duration_seconds",
				Help:    "Histogram of pipeline stage durations.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"stage"},
		),
		fetchAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookflow_fetch_attempts_total",
				Help: "Content-source fetch attempts by outcome.",
			},
			[]string{"status"},
		),
		storeOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookflow_store_operations_total",
				Help: "Version store operations by backend, operation and outcome.",
			},
			[]string{"backend", "op", "status"},
		),
	}
}

func (m *Metrics) ObserveCompletion(provider, model, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.completionRequests.WithLabelValues(provider, model, status).Inc()
	if status == StatusSuccess {
		m.completionDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ObservePipeline(status, failedStage string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(status, failedStage).Inc()
}

func (m *Metrics) ObserveFetch(status string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStore(backend, op string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.storeOps.WithLabelValues(backend, op, status).Inc()
}

// Label values shared by the collectors.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "error_empty_response"
	StatusRetry   = "retry"
)
