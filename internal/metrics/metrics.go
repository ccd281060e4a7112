// Package metrics exposes Prometheus instrumentation for the label app.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the app's collectors so handlers can bump them without
// touching global state.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge

	LabelsPrintedTotal prometheus.Counter
	PrintSessionsTotal prometheus.Counter
	AuditEntriesTotal  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medilabel_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medilabel_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "medilabel_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
		LabelsPrintedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medilabel_labels_printed_total",
			Help: "Physical labels produced by completed print runs.",
		}),
		PrintSessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medilabel_print_sessions_total",
			Help: "Completed print runs.",
		}),
		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medilabel_audit_entries_total",
			Help: "Audit log entries appended.",
		}),
	}
}
