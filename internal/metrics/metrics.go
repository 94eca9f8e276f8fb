// Package metrics holds the Prometheus metrics of the dashboard backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeInvalid     = "invalid"
	OutcomeExpired     = "auth_expired"
	OutcomeUnavailable = "unavailable"
	OutcomeBusy        = "busy"
	OutcomeError       = "error"
)

// Metrics holds all Prometheus metrics for the dashboard backend.
type Metrics struct {
	registry *prometheus.Registry

	OrdersTotal           *prometheus.CounterVec   // labels: mode, outcome
	FundsOperations       *prometheus.CounterVec   // labels: type, outcome
	CollaboratorFallbacks *prometheus.CounterVec   // labels: resource, source
	SnapshotRefreshes     *prometheus.CounterVec   // labels: outcome
	ActiveSessions        prometheus.Gauge
	HTTPRequestDuration   *prometheus.HistogramVec // labels: method, status
}

// New creates the metrics on a private registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_orders_total",
			Help: "Order submissions by mode and outcome",
		}, []string{"mode", "outcome"}),
		FundsOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_funds_operations_total",
			Help: "Funds ledger operations by type and outcome",
		}, []string{"type", "outcome"}),
		CollaboratorFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_collaborator_fallbacks_total",
			Help: "Read-path responses served without a live broker answer",
		}, []string{"resource", "source"}),
		SnapshotRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_snapshot_refreshes_total",
			Help: "Scheduled snapshot refresh runs by outcome",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Number of open dashboard sessions",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrdersTotal,
		m.FundsOperations,
		m.CollaboratorFallbacks,
		m.SnapshotRefreshes,
		m.ActiveSessions,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
