// Package metrics provides Prometheus metrics for contrast scans.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricScansTotal          = "contrastlens_scans_total"
	MetricScanDuration        = "contrastlens_scan_duration_seconds"
	MetricBlocksAnalyzedTotal = "contrastlens_blocks_analyzed_total"
	MetricViolationsTotal     = "contrastlens_violations_total"
)

// Status constants for scan completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for contrast scans.
// All recording methods are safe for concurrent use and are no-ops on a nil receiver.
type Metrics struct {
	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	blocksAnalyzed prometheus.Counter
	violations     prometheus.Counter
}

// New creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func New() *Metrics {
	return &Metrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScansTotal,
				Help: "Total number of bitmap scans by status",
			},
			[]string{"status"},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricScanDuration,
				Help:    "Histogram of whole-bitmap scan duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		blocksAnalyzed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricBlocksAnalyzedTotal,
				Help: "Total number of grid blocks evaluated",
			},
		),
		violations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricViolationsTotal,
				Help: "Total number of blocks failing WCAG AA contrast",
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveScan records one finished scan.
func (m *Metrics) ObserveScan(status string, seconds float64, blocks, violations int) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(status).Inc()
	if status != StatusSuccess {
		return
	}
	m.scanDuration.Observe(seconds)
	m.blocksAnalyzed.Add(float64(blocks))
	m.violations.Add(float64(violations))
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.scansTotal,
		m.scanDuration,
		m.blocksAnalyzed,
		m.violations,
	}
}
