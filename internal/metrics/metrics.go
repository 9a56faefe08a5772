// Package metrics collects pipeline timings in a private Prometheus registry
// and exports them as a node-exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

// Namespace prefixes every metric name.
const Namespace = "rfl"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Collector holds the pipeline metrics.
type Collector struct {
	registry *prometheus.Registry

	CorrectionDuration *prometheus.HistogramVec
	PhaseDuration      *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
	PublishedArtifacts prometheus.Gauge
}

// NewCollector registers the pipeline metrics in a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,

		CorrectionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "correction_duration_seconds",
				Help:      "Wall-clock duration of the atmospheric correction process by outcome",
				Buckets:   []float64{60, 300, 600, 1200, 1800, 3600, 7200, 14400, 28800},
			},
			[]string{"outcome"},
		),

		PhaseDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "phase_duration_seconds",
				Help:      "Pipeline phase duration in seconds by phase and status",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"phase", "status"},
		),

		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by final status and failure kind",
			},
			[]string{"status", "kind"},
		),

		PublishedArtifacts: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "published_artifacts",
				Help:      "Number of manifest entries in the last published catalog entry",
			},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveCorrection records one correction invocation.
func (c *Collector) ObserveCorrection(outcome string, d time.Duration) {
	c.CorrectionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObservePhase records one pipeline phase.
func (c *Collector) ObservePhase(phase, status string, d time.Duration) {
	c.PhaseDuration.WithLabelValues(phase, status).Observe(d.Seconds())
}

// RecordRun counts a finished run. kind is empty for successful runs.
func (c *Collector) RecordRun(status, kind string) {
	c.RunsTotal.WithLabelValues(status, kind).Inc()
}

// WriteTextfile writes the registry in text exposition format to path,
// atomically, for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
