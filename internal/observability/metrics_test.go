package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/video/:filename", "GET", 206, 5*time.Millisecond)
	m.RecordRequest("/video/:filename", "GET", 206, 5*time.Millisecond)
	m.RecordError("/video/:filename", "GET", "NOT_FOUND")
	m.RecordStream(true, true, 100)
	m.RecordStream(false, false, 40)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/video/:filename", "GET", "206")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/video/:filename", "GET", "NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streams.WithLabelValues("partial", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streams.WithLabelValues("full", "aborted")))
	assert.Equal(t, 140.0, testutil.ToFloat64(m.bytesStreamed))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordStream(true, true, 1)
}
