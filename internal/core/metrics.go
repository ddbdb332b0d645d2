package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metric status labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure" // the conversion ran and reported a failed result
	StatusError   = "error"   // the conversion never ran
)

// Metrics holds the service's Prometheus collectors on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inputBytes  *prometheus.HistogramVec
	active      prometheus.Gauge
}

// NewMetrics registers the collectors, plus the Go and process collectors,
// on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvkit_conversions_total",
			Help: "Clean and convert operations by outcome.",
		}, []string{"operation", "format", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "csvkit_conversion_duration_seconds",
			Help:    "Time spent in clean and convert operations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation", "format"}),
		inputBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "csvkit_input_bytes",
			Help:    "Size of inputs accepted for processing.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
		}, []string{"operation"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "csvkit_conversions_active",
			Help: "Operations currently holding a conversion slot.",
		}),
	}

	m.Registry.MustRegister(
		m.conversions,
		m.duration,
		m.inputBytes,
		m.active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(operation, format, status string, size int64, elapsed time.Duration) {
	m.conversions.WithLabelValues(operation, format, status).Inc()
	if status != StatusError {
		m.duration.WithLabelValues(operation, format).Observe(elapsed.Seconds())
		m.inputBytes.WithLabelValues(operation).Observe(float64(size))
	}
}

func (m *Metrics) started()  { m.active.Inc() }
func (m *Metrics) finished() { m.active.Dec() }
