package stats

import (
	"math"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

// ConvergenceSummary condenses a run's fitness history.
type ConvergenceSummary struct {
	Iterations    int     `json:"iterations"`
	InitialBest   float64 `json:"initial_best"`
	FinalBest     float64 `json:"final_best"`
	Improvement   float64 `json:"improvement"`
	IterationMean float64 `json:"iteration_mean"`
	IterationStd  float64 `json:"iteration_std"`
	// FirstExactIteration is the first iteration whose best wiring computed
	// the target, or 0 when none did.
	FirstExactIteration int `json:"first_exact_iteration"`
	// StallIterations counts trailing iterations without a new best.
	StallIterations int `json:"stall_iterations"`
}

func Summarize(history []model.IterationRecord) ConvergenceSummary {
	if len(history) == 0 {
		return ConvergenceSummary{}
	}
	summary := ConvergenceSummary{
		Iterations:  len(history),
		InitialBest: history[0].BestFitness,
		FinalBest:   history[len(history)-1].BestFitness,
	}
	summary.Improvement = summary.FinalBest - summary.InitialBest

	bests := make([]float64, len(history))
	for i, h := range history {
		bests[i] = h.IterationBest
		if summary.FirstExactIteration == 0 && h.ExactRecoveries > 0 {
			summary.FirstExactIteration = h.Iteration
		}
	}
	summary.IterationMean, summary.IterationStd = avgStd(bests)

	for i := len(history) - 1; i > 0; i-- {
		if history[i].BestFitness > history[i-1].BestFitness {
			break
		}
		summary.StallIterations++
	}
	return summary
}

func avgStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - avg
		variance += d * d
	}
	return avg, math.Sqrt(variance / float64(len(values)))
}
