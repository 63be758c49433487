// Package metrics holds the Prometheus collectors for scans, notifications,
// reports and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricScansTotal          = "gatepass_scans_total"
	MetricNotificationsTotal  = "gatepass_notifications_total"
	MetricReportsTotal        = "gatepass_reports_total"
	MetricHTTPRequestsTotal   = "gatepass_http_requests_total"
	MetricHTTPRequestDuration = "gatepass_http_request_duration_seconds"
	MetricHTTPResponseSize    = "gatepass_http_response_size_bytes"
)

// Metrics is safe for concurrent use.  It satisfies service.Observer.
type Metrics struct {
	scans         *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reports       *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpSize     *prometheus.HistogramVec
}

// NewMetrics builds unregistered collectors; call Register.
func NewMetrics() *Metrics {
	httpLabels := []string{"method", "route", "status"}
	return &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScansTotal,
			Help: "Scans processed, by result (enter, exit, duplicate, expired, ...).",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricNotificationsTotal,
			Help: "SMS/MMS send attempts, by kind and status.",
		}, []string{"kind", "status"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricReportsTotal,
			Help: "Reports generated, by type.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests served.",
		}, httpLabels),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, httpLabels),
		httpSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPResponseSize,
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6), // 100 B to 10 MB
		}, httpLabels),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.scans, m.notifications, m.reports,
		m.httpRequests, m.httpDuration, m.httpSize,
	}
}

func (m *Metrics) ScanResult(result string) {
	m.scans.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(kind, status string) {
	m.notifications.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ReportBuilt(reportType string) {
	m.reports.WithLabelValues(reportType).Inc()
}

// ObserveHTTP records one request.  route is the mux pattern, not the raw
// path, so person IDs do not explode label cardinality.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration, size int64) {
	labels := prometheus.Labels{"method": method, "route": route, "status": strconv.Itoa(status)}
	m.httpRequests.With(labels).Inc()
	m.httpDuration.With(labels).Observe(d.Seconds())
	m.httpSize.With(labels).Observe(float64(size))
}
