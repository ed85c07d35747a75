// Package metrics exposes Prometheus collectors for optimization runs.
//
// A nil *Metrics is valid and records nothing, so callers never have to
// guard their observations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for OptimizationsTotal.
const (
	OutcomeSelected = "selected"
	OutcomeFailed   = "failed"
)

// Metrics holds the optimizer's collectors.
type Metrics struct {
	OptimizationsTotal   *prometheus.CounterVec
	CandidatesConsidered prometheus.Histogram
	SelectedCost         prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OptimizationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripleopt",
			Name:      "optimizations_total",
			Help:      "Optimization runs by outcome.",
		}, []string{"outcome"}),
		CandidatesConsidered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tripleopt",
			Name:      "candidates_considered",
			Help:      "Candidate plans costed per optimization.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}),
		SelectedCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tripleopt",
			Name:      "selected_cost",
			Help:      "Estimated cost of the most recently selected plan.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.OptimizationsTotal, m.CandidatesConsidered, m.SelectedCost)
	}
	return m
}

// ObserveSelected records a successful optimization.
func (m *Metrics) ObserveSelected(candidates int, cost uint64) {
	if m == nil {
		return
	}
	m.OptimizationsTotal.WithLabelValues(OutcomeSelected).Inc()
	m.CandidatesConsidered.Observe(float64(candidates))
	m.SelectedCost.Set(float64(cost))
}

// ObserveFailed records a failed optimization.
func (m *Metrics) ObserveFailed() {
	if m == nil {
		return
	}
	m.OptimizationsTotal.WithLabelValues(OutcomeFailed).Inc()
}
