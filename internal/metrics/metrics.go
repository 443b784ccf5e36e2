// Package metrics provides Prometheus instrumentation for the attendance
// core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	EnrollmentsTotal   prometheus.Counter
	CancellationsTotal prometheus.Counter
	ScansTotal         prometheus.Counter
	NoShowsTotal       prometheus.Counter
	ScanDuration       prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EnrollmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_enrollments_total",
			Help: "Total number of successful event enrollments",
		}),
		CancellationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_cancellations_total",
			Help: "Total number of registrations cancelled by their owner",
		}),
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_scans_total",
			Help: "Total number of successful scan transitions",
		}),
		NoShowsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_no_shows_total",
			Help: "Total number of registrations marked NO_SHOW at close-out",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventgate_scan_duration_seconds",
			Help:    "Duration of scan operations (venue critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveScan records the duration of a scan operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveScan(start time.Time) {
	m.ScanDuration.Observe(time.Since(start).Seconds())
}
