package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests      *prometheus.CounterVec
	errors        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	otpEvents     *prometheus.CounterVec
	importedRows  *prometheus.CounterVec
	realtimeConns prometheus.Gauge
}

// NewMetrics registers collectors on reg. Passing a fresh registry keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedulo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedulo",
			Name:      "http_errors_total",
			Help:      "HTTP error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schedulo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedulo",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		otpEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedulo",
			Name:      "password_reset_otp_total",
			Help:      "OTP flow events by stage and outcome.",
		}, []string{"stage", "outcome"}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedulo",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by result.",
		}, []string{"result"}),
		realtimeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "schedulo",
			Name:      "realtime_connections",
			Help:      "Open realtime notification sockets.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.errors, m.latency, m.logins, m.otpEvents, m.importedRows, m.realtimeConns)
	}
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordLogin counts a login outcome such as "success" or "invalid_credentials".
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordOTP counts an OTP flow step.
func (m *Metrics) RecordOTP(stage, outcome string) {
	if m == nil {
		return
	}
	m.otpEvents.WithLabelValues(stage, outcome).Inc()
}

// RecordImportRows adds n rows with the given result ("created", "duplicate", "invalid", "failed").
func (m *Metrics) RecordImportRows(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importedRows.WithLabelValues(result).Add(float64(n))
}

// RealtimeConnected adjusts the open socket gauge by delta.
func (m *Metrics) RealtimeConnected(delta int) {
	if m == nil {
		return
	}
	m.realtimeConns.Add(float64(delta))
}
