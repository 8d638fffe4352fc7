package evo

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
)

type noiseStats struct {
	mutations  int
	rejections int
}

// injectNoise mutates every wiring in parallel. Each wiring draws from its
// own generator, seeded serially from the engine RNG, so the outcome only
// depends on the seed.
func (s *StochasticSearch) injectNoise(ctx context.Context, fraction float64) (noiseStats, error) {
	count := int(math.Round(fraction * model.SlotCount))
	seeds := make([]int64, len(s.walkers))
	for i := range seeds {
		seeds[i] = s.rng.Int63()
	}

	stats := make([]noiseStats, len(s.walkers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range s.walkers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats[i] = s.mutateWiring(s.walkers[i], rand.New(rand.NewSource(seeds[i])), count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return noiseStats{}, err
	}

	var total noiseStats
	for _, st := range stats {
		total.mutations += st.mutations
		total.rejections += st.rejections
	}
	return total, nil
}

// mutateWiring rewires up to count random slots of w to sources that
// currently emit a valid polynomial. Slots already fed by a valid source
// are only rewired with probability MutateValidProbability.
func (s *StochasticSearch) mutateWiring(w model.Wiring, rng *rand.Rand, count int) noiseStats {
	outputs := s.evaluator.Outputs(w)
	valid := propagation.ValidSources(outputs)

	var stats noiseStats
	for k := 0; k < count; k++ {
		slot := rng.Intn(model.SlotCount)

		if src := w[slot]; src != model.Unconnected && outputs[src].IsValid() {
			if rng.Float64() >= s.cfg.Noise.MutateValidProbability {
				continue
			}
		}

		mutated, rejections := rewireSlot(w, slot, valid, rng, s.cfg.Noise.RetryBudget)
		stats.rejections += rejections
		if mutated {
			stats.mutations++
		}
	}
	return stats
}

// rewireSlot connects slot to a random candidate, trying 1+retries times
// before leaving the slot unchanged. Every candidate rejected by the cycle
// guard counts as a rejection.
func rewireSlot(w model.Wiring, slot int, candidates []int, rng *rand.Rand, retries int) (bool, int) {
	unit := model.UnitOfSlot(slot)
	rejections := 0
	for attempt := 0; attempt <= retries; attempt++ {
		candidate := candidates[rng.Intn(len(candidates))]
		if propagation.WouldCreateCycle(w, unit, candidate) {
			rejections++
			continue
		}
		w[slot] = candidate
		return true, rejections
	}
	return false, rejections
}
