package tcmb

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics records request and resolution counters. A nil *metrics records
// nothing.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	resolvedSeries  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	return &metrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmb_requests_total",
				Help: "Total number of EVDS requests made",
			},
			[]string{"endpoint", "status_code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tcmb_request_duration_seconds",
				Help:    "Duration of EVDS requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "status_code"},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmb_errors_total",
				Help: "Total number of failed operations by error code",
			},
			[]string{"code"},
		),
		resolvedSeries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "tcmb_resolved_series_total",
				Help: "Total number of series codes produced by key resolution",
			},
		),
	}
}

func (m *metrics) request(endpoint string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "data"
	}
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(endpoint, status).Inc()
	m.requestDuration.WithLabelValues(endpoint, status).Observe(d.Seconds())
}

func (m *metrics) failed(code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(code).Inc()
}

func (m *metrics) resolved(n int) {
	if m == nil {
		return
	}
	m.resolvedSeries.Add(float64(n))
}
