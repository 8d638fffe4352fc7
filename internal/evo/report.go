package evo

import "github.com/adi-muresan/circuit-planner/internal/model"

// IterationReport summarizes one training iteration.
type IterationReport struct {
	Iteration int `json:"iteration"`
	// BestFitness is the running maximum over every wiring scored so far.
	BestFitness float64 `json:"best_fitness"`
	// IterationBest is the maximum over this iteration only.
	IterationBest float64 `json:"iteration_best"`
	// ExactRecoveries belongs to the best wiring of this iteration.
	ExactRecoveries int     `json:"exact_recoveries"`
	Fraction        float64 `json:"fraction"`
	Clones          int     `json:"clones"`
	Mutations       int     `json:"mutations"`
	Rejections      int     `json:"rejections"`
}

func (r IterationReport) Record() model.IterationRecord {
	return model.IterationRecord{
		Iteration:       r.Iteration,
		BestFitness:     r.BestFitness,
		IterationBest:   r.IterationBest,
		ExactRecoveries: r.ExactRecoveries,
		Fraction:        r.Fraction,
		Mutations:       r.Mutations,
		Rejections:      r.Rejections,
	}
}

// Observer receives a report after every iteration. Calls happen on the
// goroutine running Train.
type Observer interface {
	ObserveIteration(IterationReport)
}

type ObserverFunc func(IterationReport)

func (f ObserverFunc) ObserveIteration(r IterationReport) {
	f(r)
}

type RunResult struct {
	History         []IterationReport
	BestFitness     float64
	ExactRecoveries int
	BestWiring      model.Wiring
	FinalPopulation []model.Wiring
}

// BestByIteration returns the running best fitness per iteration.
func (r RunResult) BestByIteration() []float64 {
	out := make([]float64, len(r.History))
	for i, h := range r.History {
		out[i] = h.BestFitness
	}
	return out
}
