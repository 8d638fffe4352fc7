package evo

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
)

var ErrInvalidConfig = errors.New("invalid search config")

// NoiseParams controls the per-iteration mutation pass.
type NoiseParams struct {
	// StartFraction is the share of input slots drawn for mutation in the
	// first iteration.
	StartFraction float64 `json:"start_fraction" yaml:"start_fraction"`
	// Decay shrinks the fraction geometrically as iterations progress.
	Decay float64 `json:"decay" yaml:"decay"`
	// MinFraction is the floor the fraction decays towards.
	MinFraction float64 `json:"min_fraction" yaml:"min_fraction"`
	// MutateValidProbability is the chance of rewiring a slot that is
	// already fed by a valid signal.
	MutateValidProbability float64 `json:"mutate_valid_probability" yaml:"mutate_valid_probability"`
	// RetryBudget is how many extra candidates are tried after the cycle
	// guard rejects one.
	RetryBudget int `json:"retry_budget" yaml:"retry_budget"`
}

func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		StartFraction:          0.7,
		Decay:                  0.05,
		MinFraction:            0.1,
		MutateValidProbability: 0.5,
		RetryBudget:            3,
	}
}

func (p NoiseParams) Validate() error {
	unit := []struct {
		name  string
		value float64
	}{
		{"start_fraction", p.StartFraction},
		{"decay", p.Decay},
		{"min_fraction", p.MinFraction},
		{"mutate_valid_probability", p.MutateValidProbability},
	}
	for _, item := range unit {
		if math.IsNaN(item.value) || item.value < 0 || item.value > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfig, item.name, item.value)
		}
	}
	if p.RetryBudget < 0 {
		return fmt.Errorf("%w: retry_budget must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Fraction returns the share of slots to mutate after completed of total
// iterations.
func (p NoiseParams) Fraction(completed, total int) float64 {
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total)
	}
	return math.Max(p.StartFraction*math.Pow(1-p.Decay, 10*progress), p.MinFraction)
}

func (p NoiseParams) Settings() model.NoiseSettings {
	return model.NoiseSettings(p)
}

func NoiseParamsFromSettings(s model.NoiseSettings) NoiseParams {
	return NoiseParams(s)
}

type Config struct {
	Target         model.Polynomial
	PopulationSize int
	Scoring        scoring.Params
	Noise          NoiseParams
	Seed           int64
	// Workers shards the scoring and noise phases. Values <= 0 mean 1.
	Workers int
	// Initial optionally seeds the population, e.g. to continue a run.
	// Its length must equal PopulationSize.
	Initial   []model.Wiring
	Observers []Observer
	Logger    *slog.Logger
}

type TrainParams struct {
	Iterations int `json:"iterations" yaml:"iterations"`
	Cycles     int `json:"cycles" yaml:"cycles"`
	Clones     int `json:"clones" yaml:"clones"`
}

func (p TrainParams) Validate() error {
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be > 0", ErrInvalidConfig)
	}
	if p.Cycles <= 0 {
		return fmt.Errorf("%w: cycles must be > 0", ErrInvalidConfig)
	}
	if p.Clones < 0 {
		return fmt.Errorf("%w: clones must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	if len(cfg.Target) == 0 {
		return fmt.Errorf("%w: target polynomial is required", ErrInvalidConfig)
	}
	if !cfg.Target.Canonical().IsValid() {
		return fmt.Errorf("%w: target exponents must be positive and distinct, got %v", ErrInvalidConfig, []int(cfg.Target))
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Noise.Validate(); err != nil {
		return err
	}
	if cfg.Initial != nil {
		if len(cfg.Initial) != cfg.PopulationSize {
			return fmt.Errorf("%w: initial population mismatch: got=%d want=%d", ErrInvalidConfig, len(cfg.Initial), cfg.PopulationSize)
		}
		for i, w := range cfg.Initial {
			if err := w.Validate(); err != nil {
				return fmt.Errorf("%w: initial wiring %d: %v", ErrInvalidConfig, i, err)
			}
		}
	}
	return nil
}
