package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

// MemoryStore keeps records in process. Saved and returned values are deep
// copies, so callers may keep mutating their wirings.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.Run
	populations map[string]model.Population
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.Run)
	s.populations = make(map[string]model.Population)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Run{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	if !ok {
		return model.Run{}, false, nil
	}
	return cloneRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]model.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, cloneRun(run))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.populations[population.ID] = clonePopulation(population)
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.Population, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Population{}, false, ErrNotInitialized
	}
	population, ok := s.populations[id]
	if !ok {
		return model.Population{}, false, nil
	}
	return clonePopulation(population), true, nil
}

func cloneRun(run model.Run) model.Run {
	run.Target = append(model.Polynomial(nil), run.Target...)
	run.History = append([]model.IterationRecord(nil), run.History...)
	if run.BestWiring != nil {
		run.BestWiring = run.BestWiring.Clone()
	}
	return run
}

func clonePopulation(population model.Population) model.Population {
	wirings := make([]model.Wiring, len(population.Wirings))
	for i, w := range population.Wirings {
		wirings[i] = w.Clone()
	}
	population.Wirings = wirings
	return population
}
