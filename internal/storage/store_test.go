package storage

import (
	"testing"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

func testWiring(t *testing.T, seed int) model.Wiring {
	t.Helper()
	w := model.NewWiring()
	w[0] = model.SentinelID
	w[1] = model.SentinelID
	w[2] = 0
	w[4+seed%2] = 1
	return w
}

func testRun(t *testing.T, id, createdAt string) model.Run {
	t.Helper()
	return model.Run{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Target:          model.Polynomial{7, 3},
		PopulationSize:  2,
		Iterations:      1,
		Cycles:          2,
		Clones:          1,
		Seed:            9,
		Workers:         1,
		Scoring:         model.ScoringWeights{DistanceFactor: 10, DistanceTermWeight: 1, DistanceSizeWeight: 1},
		Noise:           model.NoiseSettings{StartFraction: 0.7, RetryBudget: 3},
		History: []model.IterationRecord{
			{Iteration: 1, BestFitness: 4.5, IterationBest: 4.5, Fraction: 0.7, Mutations: 12},
		},
		BestFitness: 4.5,
		BestWiring:  testWiring(t, 1),
	}
}

func testPopulation(t *testing.T, id, runID string) model.Population {
	t.Helper()
	return model.Population{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		RunID:           runID,
		Wirings:         []model.Wiring{testWiring(t, 1), testWiring(t, 2)},
	}
}
