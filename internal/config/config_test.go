package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-muresan/circuit-planner/internal/evo"
	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{3, 7}, cfg.Target)
	assert.Equal(t, 10, cfg.Population)
	assert.Equal(t, evo.TrainParams{Iterations: 20, Cycles: 30, Clones: 10}, cfg.Train)
	assert.Equal(t, scoring.DefaultParams(), cfg.Scoring)
	assert.Equal(t, evo.DefaultNoiseParams(), cfg.Noise)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
target: [5, 2]
population: 4
train:
  iterations: 3
scoring:
  distance_factor: 2.5
noise:
  retry_budget: 0
store:
  kind: memory
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, []int{5, 2}, cfg.Target)
	assert.Equal(t, 4, cfg.Population)
	assert.Equal(t, 3, cfg.Train.Iterations)
	assert.Equal(t, 30, cfg.Train.Cycles)
	assert.Equal(t, 2.5, cfg.Scoring.DistanceFactor)
	assert.Equal(t, 100.0, cfg.Scoring.FunctionRecoveredFactor)
	assert.Equal(t, 0, cfg.Noise.RetryBudget)
	assert.Equal(t, 0.7, cfg.Noise.StartFraction)
	assert.Equal(t, "json", cfg.Log.Format)

	search := cfg.SearchConfig()
	assert.Equal(t, model.Polynomial{5, 2}, search.Target)
	assert.Equal(t, 4, search.PopulationSize)
}

func TestParseEmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("populaton: 3\n"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Run)
	}{
		{"empty target", func(c *Run) { c.Target = nil }},
		{"duplicate exponent", func(c *Run) { c.Target = []int{3, 3} }},
		{"zero exponent", func(c *Run) { c.Target = []int{0, 2} }},
		{"zero population", func(c *Run) { c.Population = 0 }},
		{"negative workers", func(c *Run) { c.Workers = -1 }},
		{"zero iterations", func(c *Run) { c.Train.Iterations = 0 }},
		{"negative weight", func(c *Run) { c.Scoring.DistanceFactor = -1 }},
		{"fraction above one", func(c *Run) { c.Noise.StartFraction = 1.5 }},
		{"unknown store", func(c *Run) { c.Store.Kind = "postgres" }},
		{"sqlite without path", func(c *Run) { c.Store = StoreConfig{Kind: "sqlite"} }},
		{"bad log level", func(c *Run) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Run) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadReadsMarshalledFile(t *testing.T) {
	cfg := Default()
	cfg.Seed = 42
	cfg.Workers = 4
	cfg.Target = []int{1, 4, 9}

	data, err := Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
