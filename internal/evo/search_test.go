package evo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
)

func testConfig() Config {
	return Config{
		Target:         model.Polynomial{3, 7},
		PopulationSize: 10,
		Scoring:        scoring.DefaultParams(),
		Noise:          DefaultNoiseParams(),
		Seed:           7,
	}
}

func requireAcyclic(t *testing.T, w model.Wiring) {
	t.Helper()
	for slot, src := range w {
		if src == model.Unconnected {
			continue
		}
		unit := model.UnitOfSlot(slot)
		require.NotEqual(t, unit, src, "slot %d feeds its own unit", slot)
		require.False(t, propagation.HasUpstream(w, src, unit), "slot %d closes a cycle through %d", slot, src)
	}
}

func TestNewStochasticSearchRejectsDegenerateConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero population":    func(c *Config) { c.PopulationSize = 0 },
		"empty target":       func(c *Config) { c.Target = nil },
		"duplicate exponent": func(c *Config) { c.Target = model.Polynomial{3, 3} },
		"zero exponent":      func(c *Config) { c.Target = model.Polynomial{0, 2} },
		"negative weight":    func(c *Config) { c.Scoring.DistanceFactor = -1 },
		"fraction above one": func(c *Config) { c.Noise.StartFraction = 1.5 },
		"negative retries":   func(c *Config) { c.Noise.RetryBudget = -1 },
		"initial mismatch":   func(c *Config) { c.Initial = []model.Wiring{model.NewWiring()} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			_, err := NewStochasticSearch(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestTrainRejectsDegenerateParams(t *testing.T) {
	s, err := NewStochasticSearch(testConfig())
	require.NoError(t, err)

	for _, p := range []TrainParams{{0, 1, 1}, {1, 0, 1}, {1, 1, -1}} {
		_, err := s.Train(context.Background(), p)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestTrainEndToEnd(t *testing.T) {
	var reports []IterationReport
	cfg := testConfig()
	cfg.Observers = []Observer{ObserverFunc(func(r IterationReport) {
		reports = append(reports, r)
	})}
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	result, err := s.Train(context.Background(), TrainParams{Iterations: 20, Cycles: 30, Clones: 10})
	require.NoError(t, err)

	require.Len(t, result.History, 20)
	assert.Equal(t, result.History, reports)
	for i := 1; i < len(result.History); i++ {
		assert.GreaterOrEqual(t, result.History[i].BestFitness, result.History[i-1].BestFitness)
		assert.GreaterOrEqual(t, result.History[i].BestFitness, result.History[i].IterationBest)
	}
	assert.Equal(t, result.History[19].BestFitness, result.BestFitness)
	assert.Equal(t, 30*10, result.History[0].Clones)
	assert.Equal(t, 0.7, result.History[0].Fraction)

	require.NotNil(t, result.BestWiring)
	assert.InDelta(t, result.BestFitness, s.Scorer().Score(result.BestWiring).Fitness, 1e-9)
	require.Len(t, result.FinalPopulation, 10)
	for _, w := range result.FinalPopulation {
		requireAcyclic(t, w)
	}
}

func TestTrainIsDeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) RunResult {
		cfg := testConfig()
		cfg.Workers = workers
		s, err := NewStochasticSearch(cfg)
		require.NoError(t, err)
		result, err := s.Train(context.Background(), TrainParams{Iterations: 6, Cycles: 5, Clones: 8})
		require.NoError(t, err)
		return result
	}

	serial := run(1)
	parallel := run(4)
	assert.Equal(t, serial.History, parallel.History)
	assert.Equal(t, serial.BestWiring, parallel.BestWiring)
	assert.Equal(t, serial.FinalPopulation, parallel.FinalPopulation)
}

func TestTrainHonoursCancellation(t *testing.T) {
	s, err := NewStochasticSearch(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Train(ctx, TrainParams{Iterations: 3, Cycles: 3, Clones: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainContinuesFromInitialPopulation(t *testing.T) {
	seeded := model.NewWiring()
	seeded[2], seeded[3] = model.SentinelID, model.SentinelID // u1 = x^2
	seeded[8], seeded[9] = 1, model.SentinelID                // u4 = x^3

	cfg := testConfig()
	cfg.PopulationSize = 2
	cfg.Target = model.Polynomial{3}
	cfg.Initial = []model.Wiring{seeded, seeded}
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	seeded[2] = model.Unconnected
	assert.Equal(t, model.SentinelID, s.Population()[0][2], "initial wirings are copied")

	result, err := s.Train(context.Background(), TrainParams{Iterations: 1, Cycles: 1, Clones: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ExactRecoveries, 1)
	assert.Greater(t, result.BestFitness, cfg.Scoring.FunctionRecoveredFactor)
}

func TestClonePassCopiesHigherScore(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 2
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	s.walkers[1][0] = model.SentinelID
	performed := s.clonePass([]scoring.Result{{Fitness: 1}, {Fitness: 2}}, 3)
	assert.Equal(t, 3, performed)
	assert.Equal(t, model.SentinelID, s.walkers[0][0])

	s.walkers[0][0] = model.Unconnected
	s.clonePass([]scoring.Result{{Fitness: 5}, {Fitness: 5}}, 4)
	assert.Equal(t, model.Unconnected, s.walkers[0][0], "ties leave wirings untouched")
	assert.Equal(t, model.SentinelID, s.walkers[1][0])
}

func TestClonePassCarriesScoreWithClone(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 2
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	scored := []scoring.Result{{Fitness: 1}, {Fitness: 2}}
	s.clonePass(scored, 5)
	// After the first copy both entries score 2, so later pairings are ties.
	assert.Equal(t, 2.0, scored[0].Fitness)
	assert.Equal(t, 2.0, scored[1].Fitness)
	assert.Equal(t, s.walkers[1], s.walkers[0])
}

func TestClonePassSkipsSingleWalker(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 1
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)
	assert.Zero(t, s.clonePass([]scoring.Result{{Fitness: 1}}, 10))
}

func TestMutateWiringKeepsValidSlotsWhenProbabilityIsZero(t *testing.T) {
	cfg := testConfig()
	cfg.Noise.MutateValidProbability = 0
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	w := model.NewWiring()
	w[2], w[3] = model.SentinelID, model.SentinelID
	stats := s.mutateWiring(w, rand.New(rand.NewSource(1)), 2000)

	assert.Equal(t, model.SentinelID, w[2])
	assert.Equal(t, model.SentinelID, w[3])
	assert.Positive(t, stats.mutations)
	requireAcyclic(t, w)
}

func TestMutateWiringRewiresValidSlotsWhenProbabilityIsOne(t *testing.T) {
	cfg := testConfig()
	cfg.Noise.MutateValidProbability = 1
	s, err := NewStochasticSearch(cfg)
	require.NoError(t, err)

	w := model.NewWiring()
	for slot := range w {
		w[slot] = model.SentinelID
	}
	before := w.Clone()
	const draws = model.SlotCount
	stats := s.mutateWiring(w, rand.New(rand.NewSource(3)), draws)

	assert.Positive(t, stats.mutations)
	assert.LessOrEqual(t, stats.mutations, draws)
	// Every draw passes the probability gate, so each one either rewires
	// the slot or spends at least one rejected attempt.
	assert.GreaterOrEqual(t, stats.mutations+stats.rejections, draws)
	assert.NotEqual(t, before, w)
	requireAcyclic(t, w)
}

// chainWiring feeds unit 1 from the sentinel twice and unit 4 from unit 1
// twice. Any source for unit 1 other than the sentinel closes a cycle.
func chainWiring() model.Wiring {
	w := model.NewWiring()
	w[2], w[3] = model.SentinelID, model.SentinelID
	w[8], w[9] = 1, 1
	return w
}

func TestRewireSlotLeavesSlotWhenRetriesExhaust(t *testing.T) {
	for retries := 0; retries <= 4; retries++ {
		w := chainWiring()
		mutated, rejections := rewireSlot(w, 2, []int{1, 4}, rand.New(rand.NewSource(int64(retries))), retries)

		assert.False(t, mutated, "retries=%d", retries)
		assert.Equal(t, retries+1, rejections, "retries=%d", retries)
		assert.Equal(t, chainWiring(), w, "retries=%d", retries)
	}
}

func TestRewireSlotTakesSafeCandidate(t *testing.T) {
	w := chainWiring()
	mutated, rejections := rewireSlot(w, 3, []int{model.SentinelID}, rand.New(rand.NewSource(1)), 3)
	assert.True(t, mutated)
	assert.Zero(t, rejections)
	assert.Equal(t, model.SentinelID, w[3])

	// unit 5 is unconnected, so unit 4 is a safe source for it.
	mutated, rejections = rewireSlot(w, 10, []int{4}, rand.New(rand.NewSource(1)), 0)
	assert.True(t, mutated)
	assert.Zero(t, rejections)
	assert.Equal(t, 4, w[10])
	requireAcyclic(t, w)
}

func TestNoiseFractionDecaysToFloor(t *testing.T) {
	p := DefaultNoiseParams()
	assert.Equal(t, 0.7, p.Fraction(0, 20))
	assert.Less(t, p.Fraction(10, 20), p.Fraction(5, 20))

	p.Decay = 0.5
	assert.Equal(t, p.MinFraction, p.Fraction(19, 20))
	assert.Equal(t, p, NoiseParamsFromSettings(p.Settings()))
}
