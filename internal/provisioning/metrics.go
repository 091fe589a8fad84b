package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for provisioning runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runsTotal       *prometheus.CounterVec
	phaseDuration   *prometheus.HistogramVec
	conflictRetries *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodeprov",
				Subsystem: "provision",
				Name:      "runs_total",
				Help:      "Total number of node provisioning runs by result",
			},
			[]string{"result"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nodeprov",
				Subsystem: "phase",
				Name:      "duration_seconds",
				Help:      "Duration of provisioning phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
			},
			[]string{"phase", "result"},
		),
		conflictRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodeprov",
				Subsystem: "provider",
				Name:      "conflict_retries_total",
				Help:      "Mutations retried because the resource had a pending operation",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.runsTotal, m.phaseDuration, m.conflictRetries)
	}
	return m
}

// RecordRun counts a finished provisioning run.
func (m *Metrics) RecordRun(err error) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(resultLabel(err)).Inc()
}

// RecordPhase observes the duration of one phase.
func (m *Metrics) RecordPhase(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase, resultLabel(err)).Observe(d.Seconds())
}

// RecordConflictRetry counts one conflict-driven retry of operation.
func (m *Metrics) RecordConflictRetry(operation string) {
	if m == nil {
		return
	}
	m.conflictRetries.WithLabelValues(operation).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
