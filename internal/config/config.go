// Package config loads run configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adi-muresan/circuit-planner/internal/evo"
	"github.com/adi-muresan/circuit-planner/internal/logging"
	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
	"github.com/adi-muresan/circuit-planner/internal/storage"
)

var ErrInvalid = errors.New("invalid run config")

type StoreConfig struct {
	// Kind is memory or sqlite.
	Kind   string `json:"kind" yaml:"kind"`
	DBPath string `json:"db_path" yaml:"db_path"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Run is the on-disk shape of a search run.
type Run struct {
	Target       []int           `json:"target" yaml:"target"`
	Population   int             `json:"population" yaml:"population"`
	Seed         int64           `json:"seed" yaml:"seed"`
	Workers      int             `json:"workers" yaml:"workers"`
	Train        evo.TrainParams `json:"train" yaml:"train"`
	Scoring      scoring.Params  `json:"scoring" yaml:"scoring"`
	Noise        evo.NoiseParams `json:"noise" yaml:"noise"`
	Store        StoreConfig     `json:"store" yaml:"store"`
	Log          LogConfig       `json:"log" yaml:"log"`
	// ArtifactsDir receives per-run artifacts. Empty disables them.
	ArtifactsDir string          `json:"artifacts_dir" yaml:"artifacts_dir"`
}

// Default returns the configuration the planner ships with: x^7 + x^3 over
// ten wirings, 20 iterations of 30 cycles with 10 clones each.
func Default() Run {
	return Run{
		Target:     []int{3, 7},
		Population: 10,
		Seed:       1,
		Workers:    1,
		Train: evo.TrainParams{
			Iterations: 20,
			Cycles:     30,
			Clones:     10,
		},
		Scoring: scoring.DefaultParams(),
		Noise:   evo.DefaultNoiseParams(),
		Store: StoreConfig{
			Kind:   storage.DefaultStoreKind(),
			DBPath: "circuit-planner.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatAuto,
		},
		ArtifactsDir: "benchmarks",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value; unknown keys are rejected.
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Run, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Run{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Run) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Run) Validate() error {
	if len(c.Target) == 0 {
		return fmt.Errorf("%w: target is required", ErrInvalid)
	}
	if !model.Polynomial(c.Target).Canonical().IsValid() {
		return fmt.Errorf("%w: target exponents must be positive and distinct, got %v", ErrInvalid, c.Target)
	}
	if c.Population <= 0 {
		return fmt.Errorf("%w: population must be > 0", ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalid)
	}
	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Noise.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("%w: store.db_path is required for sqlite", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unsupported store kind %q", ErrInvalid, c.Store.Kind)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "", logging.FormatAuto, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: unsupported log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SearchConfig maps the file onto the engine configuration. Observers,
// logger and initial population are left for the caller.
func (c Run) SearchConfig() evo.Config {
	return evo.Config{
		Target:         model.Polynomial(c.Target).Canonical(),
		PopulationSize: c.Population,
		Scoring:        c.Scoring,
		Noise:          c.Noise,
		Seed:           c.Seed,
		Workers:        c.Workers,
	}
}

func (c Run) LoggingConfig(service string) logging.Config {
	return logging.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Service: service,
	}
}
