// Package metrics provides Prometheus instrumentation for the contact
// pipeline: outcomes per form, which heuristic rejected a draft, notification
// failures and end-to-end latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SubmissionsTotal counts finished pipeline runs by form and outcome.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_submissions_total",
		Help: "Contact form submissions by form and outcome",
	}, []string{"form", "outcome"})

	// RejectionsTotal counts heuristic and schema rejections by check.
	RejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_rejections_total",
		Help: "Contact submissions rejected before persistence, by check",
	}, []string{"form", "check"})

	// NotificationFailuresTotal counts best-effort notifications that failed.
	NotificationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contact_notification_failures_total",
		Help: "Notification relay calls that failed after a stored submission",
	})

	// PipelineDuration records submit-to-response latency.
	PipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contact_pipeline_duration_seconds",
		Help:    "Time spent handling one contact submission",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"form"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		RejectionsTotal,
		NotificationFailuresTotal,
		PipelineDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
