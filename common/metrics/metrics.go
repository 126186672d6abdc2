// Package metrics holds the Prometheus collectors shared by the server and worker.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// WebhookEventsTotal counts identity webhook deliveries by type and outcome
	// (processed, ignored, failed, rejected).
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "webhook_events_total",
			Help:      "Identity webhook deliveries by event type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	WebhookAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "webhook_attempts",
			Help:      "Handler attempts used per webhook delivery.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"type"},
	)

	DeletionStepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "deletion_step_failures_total",
			Help:      "Cascading deletion steps that failed and were skipped.",
		},
		[]string{"step"},
	)

	HTTPPanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by the server, by route.",
		},
		[]string{"route"},
	)

	// RecoveryJobsTotal counts worker outcomes for recovery jobs
	// (completed, requeued, dead_lettered, reclaimed).
	RecoveryJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "recovery_jobs_total",
			Help:      "Recovery job outcomes observed by the worker.",
		},
		[]string{"outcome"},
	)

	InvitationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "invitation_transitions_total",
			Help:      "Invitation status transitions.",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPInFlight,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			WebhookEventsTotal,
			WebhookAttempts,
			DeletionStepFailures,
			InvitationTransitions,
			HTTPPanicsTotal,
			RecoveryJobsTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
