// Package metrics holds the Prometheus collectors for reminder runs, report
// builds and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReminderCandidates counts due records found per run, by record type.
	ReminderCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csms_reminder_candidates_total",
			Help: "Due records selected by the reminder evaluator",
		},
		[]string{"record_type"},
	)

	// ReminderOutcomes counts dispatch outcomes: sent, skipped, failed, dry_run.
	ReminderOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csms_reminder_outcomes_total",
			Help: "Reminder dispatch outcomes",
		},
		[]string{"outcome"},
	)

	// InvalidRecords counts records excluded for malformed data.
	InvalidRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csms_invalid_records_total",
			Help: "Records skipped for malformed dates or missing recipients",
		},
		[]string{"component"}, // reminder, report
	)

	// ReportBuilds counts report encodings by format and outcome.
	ReportBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csms_report_builds_total",
			Help: "Report documents encoded",
		},
		[]string{"format", "outcome"},
	)

	// HTTPRequestDuration observes API latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csms_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordReminderOutcome increments the outcome counter.
func RecordReminderOutcome(outcome string) {
	ReminderOutcomes.WithLabelValues(outcome).Inc()
}

// RecordReportBuild increments the report counter.
func RecordReportBuild(format, outcome string) {
	ReportBuilds.WithLabelValues(format, outcome).Inc()
}

// RecordHTTPRequestDuration observes one request.
func RecordHTTPRequestDuration(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
