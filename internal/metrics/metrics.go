// Package metrics holds the Prometheus collectors of the catalog service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPStatusCategory  *prometheus.CounterVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DBOperationDuration *prometheus.HistogramVec

	// Catalog metrics
	OperationsCounter    *prometheus.CounterVec
	CompensationsCounter *prometheus.CounterVec
	CSVRowsCounter       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPStatusCategory: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"category"},
		),
		AuthAttemptsCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
		),
		AuthSuccessCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_success_total",
				Help: "Total number of successful authentications",
			},
		),
		AuthErrorsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors",
			},
			[]string{"reason"},
		),
		DBOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		OperationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_operations_total",
				Help: "Total number of catalog operations",
			},
			[]string{"entity", "operation"},
		),
		CompensationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_compensations_total",
				Help: "Total number of undo steps run after a failed multi-step write",
			},
			[]string{"step", "result"},
		),
		CSVRowsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_csv_rows_total",
				Help: "Total number of CSV import rows by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveHTTP records one finished request
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())

	switch {
	case status >= 200 && status < 300:
		m.HTTPStatusCategory.WithLabelValues("2xx").Inc()
	case status >= 400 && status < 500:
		m.HTTPStatusCategory.WithLabelValues("4xx").Inc()
	case status >= 500 && status < 600:
		m.HTTPStatusCategory.WithLabelValues("5xx").Inc()
	}
}

// RecordAuthAttempt counts a login attempt
func (m *Metrics) RecordAuthAttempt() {
	if m == nil {
		return
	}
	m.AuthAttemptsCounter.Inc()
}

// RecordAuthSuccess counts an issued token
func (m *Metrics) RecordAuthSuccess() {
	if m == nil {
		return
	}
	m.AuthSuccessCounter.Inc()
}

// RecordAuthError counts a rejected credential
func (m *Metrics) RecordAuthError(reason string) {
	if m == nil {
		return
	}
	m.AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// TrackDBOperation returns a function that records the duration of a database operation
func (m *Metrics) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordOperation increments the counter for a completed catalog operation
func (m *Metrics) RecordOperation(entity, operation string) {
	if m == nil {
		return
	}
	m.OperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordCompensation counts an undo step and whether it succeeded
func (m *Metrics) RecordCompensation(step string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.CompensationsCounter.WithLabelValues(step, result).Inc()
}

// RecordCSVRow counts an import row by outcome
func (m *Metrics) RecordCSVRow(outcome string) {
	if m == nil {
		return
	}
	m.CSVRowsCounter.WithLabelValues(outcome).Inc()
}

// Handler exposes the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
