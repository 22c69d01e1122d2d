package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	streams         *prometheus.CounterVec
	bytesStreamed   prometheus.Counter
}

// NewMetrics registers collectors on reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_service_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "video_service_http_request_duration_seconds",
			Help:    "Time spent in handlers, excluding body streaming.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_service_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_service_streams_total",
			Help: "Finished video streams by kind (full, partial) and outcome (complete, aborted).",
		}, []string{"kind", "outcome"}),
		bytesStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_service_streamed_bytes_total",
			Help: "Bytes read from disk into video responses.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.requestDuration, m.errors, m.streams, m.bytesStreamed)
	}
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordStream accounts a finished video response.
func (m *Metrics) RecordStream(partial, complete bool, bytes int64) {
	if m == nil {
		return
	}
	kind, outcome := "full", "complete"
	if partial {
		kind = "partial"
	}
	if !complete {
		outcome = "aborted"
	}
	m.streams.WithLabelValues(kind, outcome).Inc()
	m.bytesStreamed.Add(float64(bytes))
}
