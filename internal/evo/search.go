// Package evo runs the population search over wirings: every cycle scores
// the population and clones winners over losers, every iteration injects
// decaying noise into all wirings.
package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/adi-muresan/circuit-planner/internal/logging"
	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
)

type StochasticSearch struct {
	cfg       Config
	rng       *rand.Rand
	logger    *slog.Logger
	evaluator *propagation.Evaluator
	scorer    *scoring.Scorer
	walkers   []model.Wiring
}

func NewStochasticSearch(cfg Config) (*StochasticSearch, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	cfg.Target = cfg.Target.Canonical()
	logger := logging.OrDiscard(cfg.Logger)

	evaluator := propagation.NewEvaluator(logger)
	scorer, err := scoring.NewScorer(cfg.Target, cfg.Scoring, evaluator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	walkers := make([]model.Wiring, cfg.PopulationSize)
	for i := range walkers {
		if cfg.Initial != nil {
			walkers[i] = cfg.Initial[i].Clone()
		} else {
			walkers[i] = model.NewWiring()
		}
	}
	cfg.Initial = nil

	return &StochasticSearch{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		logger:    logger,
		evaluator: evaluator,
		scorer:    scorer,
		walkers:   walkers,
	}, nil
}

func (s *StochasticSearch) Target() model.Polynomial {
	return s.cfg.Target.Canonical()
}

func (s *StochasticSearch) Scorer() *scoring.Scorer {
	return s.scorer
}

// Population returns a copy of every wiring.
func (s *StochasticSearch) Population() []model.Wiring {
	out := make([]model.Wiring, len(s.walkers))
	for i, w := range s.walkers {
		out[i] = w.Clone()
	}
	return out
}

// Train runs the search to completion. The context is checked between
// iterations and inside the parallel phases.
func (s *StochasticSearch) Train(ctx context.Context, params TrainParams) (RunResult, error) {
	if err := params.Validate(); err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		History:     make([]IterationReport, 0, params.Iterations),
		BestFitness: math.Inf(-1),
	}

	for iter := 0; iter < params.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		report := IterationReport{Iteration: iter + 1, IterationBest: math.Inf(-1)}
		for cycle := 0; cycle < params.Cycles; cycle++ {
			scored, err := s.scorePopulation(ctx)
			if err != nil {
				return RunResult{}, err
			}

			for i, res := range scored {
				if res.Fitness > report.IterationBest {
					report.IterationBest = res.Fitness
					report.ExactRecoveries = res.ExactRecoveries
				}
				if res.Fitness > result.BestFitness {
					result.BestFitness = res.Fitness
					result.ExactRecoveries = res.ExactRecoveries
					result.BestWiring = s.walkers[i].Clone()
				}
			}
			report.Clones += s.clonePass(scored, params.Clones)
		}

		report.Fraction = s.cfg.Noise.Fraction(iter, params.Iterations)
		stats, err := s.injectNoise(ctx, report.Fraction)
		if err != nil {
			return RunResult{}, err
		}
		report.Mutations = stats.mutations
		report.Rejections = stats.rejections
		report.BestFitness = result.BestFitness

		result.History = append(result.History, report)
		s.logger.Debug("iteration finished",
			slog.Int("iteration", report.Iteration),
			slog.Int("iterations", params.Iterations),
			slog.Float64("best_fitness", report.BestFitness),
			slog.Float64("iteration_best", report.IterationBest),
			slog.Int("exact_recoveries", report.ExactRecoveries),
			slog.Float64("fraction", report.Fraction),
			slog.Int("mutations", report.Mutations),
			slog.Int("rejections", report.Rejections),
		)
		for _, o := range s.cfg.Observers {
			o.ObserveIteration(report)
		}
	}

	result.FinalPopulation = s.Population()
	return result, nil
}

func (s *StochasticSearch) scorePopulation(ctx context.Context) ([]scoring.Result, error) {
	scored := make([]scoring.Result, len(s.walkers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range s.walkers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = s.scorer.Score(s.walkers[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// clonePass overwrites the lower-scoring wiring of clones random pairs with
// the higher-scoring one. The copied score travels with the content so later
// pairs in the same pass compare what the slots now hold. Equal scores leave
// both wirings untouched.
func (s *StochasticSearch) clonePass(scored []scoring.Result, clones int) int {
	n := len(s.walkers)
	if n < 2 {
		return 0
	}

	performed := 0
	for performed < clones {
		a, b := s.rng.Intn(n), s.rng.Intn(n)
		if a == b {
			continue
		}
		switch {
		case scored[a].Fitness > scored[b].Fitness:
			s.walkers[b].CopyFrom(s.walkers[a])
			scored[b] = scored[a]
		case scored[b].Fitness > scored[a].Fitness:
			s.walkers[a].CopyFrom(s.walkers[b])
			scored[a] = scored[b]
		}
		performed++
	}
	return performed
}
