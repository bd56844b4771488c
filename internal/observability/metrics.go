package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	uploadsTotal             *prometheus.CounterVec
	evaluationsTotal         *prometheus.CounterVec
	evaluationLatencySeconds *prometheus.HistogramVec
	reconciliationsTotal     *prometheus.CounterVec
	blobOperationsTotal      *prometheus.CounterVec
	eventsPublishedTotal     *prometheus.CounterVec
	versionConflictsTotal    prometheus.Counter
	httpRequestsTotal        *prometheus.CounterVec
	httpLatencySeconds       *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_uploads_total",
			Help: "Total number of submission uploads processed.",
		}, []string{"category", "outcome"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_evaluations_total",
			Help: "Total number of AI evaluations attempted.",
		}, []string{"category", "outcome"})

		evaluationLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_evaluation_latency_seconds",
			Help:    "Latency distribution for AI evaluation calls.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"category"})

		reconciliationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_reconciliations_total",
			Help: "Total number of final score reconciliations.",
		}, []string{"rule"})

		blobOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_blob_operations_total",
			Help: "Total number of blob store operations.",
		}, []string{"operation", "outcome"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_events_published_total",
			Help: "Total number of pipeline events published to brokers.",
		}, []string{"type"})

		versionConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_version_conflicts_total",
			Help: "Total number of optimistic lock conflicts on submissions.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			uploadsTotal,
			evaluationsTotal,
			evaluationLatencySeconds,
			reconciliationsTotal,
			blobOperationsTotal,
			eventsPublishedTotal,
			versionConflictsTotal,
			httpRequestsTotal,
			httpLatencySeconds,
		)
	})
}

// Uploads exposes the counter for processed uploads.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// Evaluations exposes the counter for AI evaluation attempts.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationLatency exposes the latency histogram for AI evaluations.
func EvaluationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return evaluationLatencySeconds
}

// Reconciliations exposes the counter for score reconciliations.
func Reconciliations() *prometheus.CounterVec {
	RegisterMetrics()
	return reconciliationsTotal
}

// BlobOperations exposes the counter for blob store operations.
func BlobOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return blobOperationsTotal
}

// EventsPublished exposes the counter for broker events.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// VersionConflicts exposes the counter for optimistic lock conflicts.
func VersionConflicts() prometheus.Counter {
	RegisterMetrics()
	return versionConflictsTotal
}

// HTTPRequests exposes the counter for served API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
