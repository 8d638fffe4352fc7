// Package scoring turns a wiring into a scalar fitness for the search.
package scoring

import (
	"errors"
	"math"
	"sort"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
	"github.com/adi-muresan/circuit-planner/internal/routing"
)

// closestCandidates is how many of the nearest unit outputs earn a
// distance reward.
const closestCandidates = 3

// Breakdown itemizes the weighted terms of a fitness value.
type Breakdown struct {
	InputRecovered    float64   `json:"input_recovered"`
	Structure         float64   `json:"structure"`
	TermDistance      float64   `json:"term_distance"`
	TermRecovered     float64   `json:"term_recovered"`
	FunctionRecovered float64   `json:"function_recovered"`
	SpeedPrior        float64   `json:"speed_prior"`
	SingleInputUnits  int       `json:"single_input_units"`
	FullUnits         int       `json:"full_units"`
	WireLength        int       `json:"wire_length"`
	ClosestDistances  []float64 `json:"closest_distances,omitempty"`
}

type Result struct {
	Fitness float64 `json:"fitness"`
	// ExactRecoveries counts units whose output equals the target.
	ExactRecoveries int       `json:"exact_recoveries"`
	Breakdown       Breakdown `json:"breakdown"`
}

type Scorer struct {
	params    Params
	target    model.Polynomial
	evaluator *propagation.Evaluator
}

// NewScorer canonicalizes a copy of target. A nil evaluator gets a silent
// default.
func NewScorer(target model.Polynomial, params Params, evaluator *propagation.Evaluator) (*Scorer, error) {
	if len(target) == 0 {
		return nil, errors.New("target polynomial is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		evaluator = propagation.NewEvaluator(nil)
	}
	return &Scorer{
		params:    params,
		target:    target.Canonical(),
		evaluator: evaluator,
	}, nil
}

func (s *Scorer) Target() model.Polynomial {
	return s.target.Canonical()
}

func (s *Scorer) Params() Params {
	return s.params
}

func (s *Scorer) Score(w model.Wiring) Result {
	return s.ScoreOutputs(w, s.evaluator.Outputs(w))
}

// ScoreOutputs scores w given its already propagated outputs.
func (s *Scorer) ScoreOutputs(w model.Wiring, outputs []model.UnitOutput) Result {
	var b Breakdown

	if w.UsesSentinel() {
		b.InputRecovered = s.params.InputRecoveredFactor
	}

	for unit := 0; unit < model.UnitCount; unit++ {
		switch w.ConnectedInputs(unit) {
		case 1:
			b.SingleInputUnits++
		case 2:
			b.FullUnits++
		}
	}
	// Half-wired units are only charged once something is fully wired.
	if b.FullUnits > 0 {
		b.Structure = s.params.OutputRecoveredFactor +
			s.params.UnitBothInputsFactor*float64(b.FullUnits) -
			s.params.UnitSingleInputPenalty*float64(b.SingleInputUnits)
	}

	exact := 0
	distances := make([]float64, 0, model.UnitCount)
	recoveredTerms := make([]bool, len(s.target))
	for unit := 0; unit < model.UnitCount; unit++ {
		out := outputs[unit]
		if !out.IsValid() {
			continue
		}
		if out.Poly.Equal(s.target) {
			exact++
		}
		distances = append(distances, s.params.Distance(s.target, out.Poly))
		for i, exp := range s.target {
			if !recoveredTerms[i] && out.Poly.Contains(exp) {
				recoveredTerms[i] = true
			}
		}
	}

	sort.Float64s(distances)
	if len(distances) > closestCandidates {
		distances = distances[:closestCandidates]
	}
	for _, d := range distances {
		b.TermDistance += s.params.DistanceFactor * math.Exp(-d)
	}
	b.ClosestDistances = distances

	recovered := 0
	for _, ok := range recoveredTerms {
		if ok {
			recovered++
		}
	}
	b.TermRecovered = s.params.TermRecoveredFactor * float64(recovered) / float64(len(s.target))

	if exact > 0 {
		b.FunctionRecovered = s.params.FunctionRecoveredFactor
	}

	b.WireLength = routing.WiringLength(w)
	b.SpeedPrior = s.params.SpeedPriorFactor / float64(1+b.WireLength)

	return Result{
		Fitness:         b.InputRecovered + b.Structure + b.TermDistance + b.TermRecovered + b.FunctionRecovered + b.SpeedPrior,
		ExactRecoveries: exact,
		Breakdown:       b,
	}
}
