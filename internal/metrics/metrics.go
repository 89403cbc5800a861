// Package metrics exposes Prometheus collectors for the HTTP surface, the
// spreadsheet backend, and token verification.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parrotops"

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	sheetCallsTotal   *prometheus.CounterVec
	sheetCallDuration *prometheus.HistogramVec

	authVerificationsTotal *prometheus.CounterVec

	journalWriteErrors prometheus.Counter
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken for HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.sheetCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_calls_total",
			Help:      "Total number of spreadsheet API calls",
		},
		[]string{"operation", "status"}, // status: success, error
	)

	m.sheetCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sheet_call_duration_seconds",
			Help:      "Time taken for spreadsheet API calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"operation"},
	)

	m.authVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_verifications_total",
			Help:      "Token verifications by outcome",
		},
		[]string{"outcome"}, // hit, miss, rejected, error
	)

	m.journalWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_write_errors_total",
			Help:      "Journal entries that could not be recorded",
		},
	)
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	m.sheetCallsTotal.Describe(ch)
	m.sheetCallDuration.Describe(ch)
	m.authVerificationsTotal.Describe(ch)
	m.journalWriteErrors.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	m.sheetCallsTotal.Collect(ch)
	m.sheetCallDuration.Collect(ch)
	m.authVerificationsTotal.Collect(ch)
	m.journalWriteErrors.Collect(ch)
}

// ObserveRequest records one served HTTP request. route is the matched
// ServeMux pattern, or "unmatched".
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveSheetCall implements sheet.Observer.
func (m *Metrics) ObserveSheetCall(op string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sheetCallsTotal.WithLabelValues(op, status).Inc()
	m.sheetCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveAuth implements auth.Recorder.
func (m *Metrics) ObserveAuth(outcome string) {
	m.authVerificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) JournalWriteFailed() {
	m.journalWriteErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
