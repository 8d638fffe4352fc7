// Package telemetry exports search progress as prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adi-muresan/circuit-planner/internal/evo"
)

const (
	metricsNamespace = "circuit_planner"
	searchSubsystem  = "search"
)

// SearchMetrics implements evo.Observer.
type SearchMetrics struct {
	// BestFitness is the running best fitness of the current run.
	BestFitness prometheus.Gauge
	// IterationBest is the best fitness of the last iteration.
	IterationBest prometheus.Gauge
	// ExactRecoveries counts units computing the target in the last
	// iteration's best wiring.
	ExactRecoveries prometheus.Gauge
	// MutationFraction is the slot share drawn in the last noise pass.
	MutationFraction prometheus.Gauge

	IterationsTotal prometheus.Counter
	ClonesTotal     prometheus.Counter
	// NoiseEventsTotal counts noise outcomes by result (mutated, rejected).
	NoiseEventsTotal *prometheus.CounterVec
}

var _ evo.Observer = (*SearchMetrics)(nil)

// NewSearchMetrics registers the collectors on reg. Passing
// prometheus.DefaultRegisterer exposes them through promhttp.Handler.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	factory := promauto.With(reg)
	return &SearchMetrics{
		BestFitness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "best_fitness",
			Help:      "Running best fitness of the current run.",
		}),
		IterationBest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "iteration_best_fitness",
			Help:      "Best fitness observed in the last iteration.",
		}),
		ExactRecoveries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "exact_recoveries",
			Help:      "Units computing the target in the last iteration's best wiring.",
		}),
		MutationFraction: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "mutation_fraction",
			Help:      "Share of input slots drawn during the last noise pass.",
		}),
		IterationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "iterations_total",
			Help:      "Completed training iterations.",
		}),
		ClonesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "clones_total",
			Help:      "Pairwise clone operations performed.",
		}),
		NoiseEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: searchSubsystem,
			Name:      "noise_events_total",
			Help:      "Noise injection outcomes by result.",
		}, []string{"result"}),
	}
}

func (m *SearchMetrics) ObserveIteration(r evo.IterationReport) {
	m.BestFitness.Set(r.BestFitness)
	m.IterationBest.Set(r.IterationBest)
	m.ExactRecoveries.Set(float64(r.ExactRecoveries))
	m.MutationFraction.Set(r.Fraction)
	m.IterationsTotal.Inc()
	m.ClonesTotal.Add(float64(r.Clones))
	m.NoiseEventsTotal.WithLabelValues("mutated").Add(float64(r.Mutations))
	m.NoiseEventsTotal.WithLabelValues("rejected").Add(float64(r.Rejections))
}
