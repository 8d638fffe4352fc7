package scoring

import (
	"fmt"
	"math"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

// Params weighs the fitness terms. All weights must be finite and >= 0.
type Params struct {
	InputRecoveredFactor    float64 `json:"input_recovered_factor" yaml:"input_recovered_factor"`
	OutputRecoveredFactor   float64 `json:"output_recovered_factor" yaml:"output_recovered_factor"`
	UnitSingleInputPenalty  float64 `json:"unit_single_input_penalty" yaml:"unit_single_input_penalty"`
	UnitBothInputsFactor    float64 `json:"unit_both_inputs_factor" yaml:"unit_both_inputs_factor"`
	TermRecoveredFactor     float64 `json:"term_recovered_factor" yaml:"term_recovered_factor"`
	FunctionRecoveredFactor float64 `json:"function_recovered_factor" yaml:"function_recovered_factor"`
	DistanceFactor          float64 `json:"distance_factor" yaml:"distance_factor"`
	SpeedPriorFactor        float64 `json:"speed_prior_factor" yaml:"speed_prior_factor"`

	// DistanceTermWeight and DistanceSizeWeight trade the per-exponent
	// distance against the term count mismatch inside Distance.
	DistanceTermWeight float64 `json:"distance_term_weight" yaml:"distance_term_weight"`
	DistanceSizeWeight float64 `json:"distance_size_weight" yaml:"distance_size_weight"`
}

func DefaultParams() Params {
	return Params{
		InputRecoveredFactor:    1.0,
		OutputRecoveredFactor:   1.0,
		UnitSingleInputPenalty:  1.0,
		UnitBothInputsFactor:    0.2,
		TermRecoveredFactor:     1.0,
		FunctionRecoveredFactor: 100.0,
		DistanceFactor:          10.0,
		SpeedPriorFactor:        1.0,
		DistanceTermWeight:      1.0,
		DistanceSizeWeight:      1.0,
	}
}

func (p Params) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"input_recovered_factor", p.InputRecoveredFactor},
		{"output_recovered_factor", p.OutputRecoveredFactor},
		{"unit_single_input_penalty", p.UnitSingleInputPenalty},
		{"unit_both_inputs_factor", p.UnitBothInputsFactor},
		{"term_recovered_factor", p.TermRecoveredFactor},
		{"function_recovered_factor", p.FunctionRecoveredFactor},
		{"distance_factor", p.DistanceFactor},
		{"speed_prior_factor", p.SpeedPriorFactor},
		{"distance_term_weight", p.DistanceTermWeight},
		{"distance_size_weight", p.DistanceSizeWeight},
	}
	for _, w := range weights {
		if math.IsNaN(w.value) || math.IsInf(w.value, 0) || w.value < 0 {
			return fmt.Errorf("%s must be a finite value >= 0, got %v", w.name, w.value)
		}
	}
	return nil
}

// Weights converts p to its persisted form.
func (p Params) Weights() model.ScoringWeights {
	return model.ScoringWeights(p)
}

func ParamsFromWeights(w model.ScoringWeights) Params {
	return Params(w)
}
