// Package metrics records run counters on a private Prometheus registry and
// can dump them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "route_settlement_"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	documents   *prometheus.CounterVec
	drivers     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	extract     prometheus.Histogram
	lastRun     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.documents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "documents_total",
			Help: "Documents processed by status",
		},
		[]string{"status"},
	)
	m.drivers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "drivers_total",
			Help: "Driver groups by outcome",
		},
		[]string{"status"},
	)
	m.diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "diagnostics_total",
			Help: "Recorded diagnostics by level",
		},
		[]string{"level"},
	)
	m.extract = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "extract_duration_seconds",
			Help:    "Per-document load and extraction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.lastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricPrefix + "last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		},
	)
	m.registry.MustRegister(m.documents, m.drivers, m.diagnostics, m.extract, m.lastRun)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveDocument(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
	m.extract.Observe(elapsed.Seconds())
}

func (m *Metrics) IncDriver(status string) {
	if m == nil {
		return
	}
	m.drivers.WithLabelValues(status).Inc()
}

func (m *Metrics) AddDiagnostics(level string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.diagnostics.WithLabelValues(level).Add(float64(n))
}

func (m *Metrics) MarkRun(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
