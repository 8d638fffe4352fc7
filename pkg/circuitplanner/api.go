// Package circuitplanner is the programmatic entry point: it runs searches,
// persists their outcome and reads finished runs back.
package circuitplanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adi-muresan/circuit-planner/internal/config"
	"github.com/adi-muresan/circuit-planner/internal/evo"
	"github.com/adi-muresan/circuit-planner/internal/logging"
	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
	"github.com/adi-muresan/circuit-planner/internal/routing"
	"github.com/adi-muresan/circuit-planner/internal/scoring"
	"github.com/adi-muresan/circuit-planner/internal/stats"
	"github.com/adi-muresan/circuit-planner/internal/storage"
	"github.com/adi-muresan/circuit-planner/internal/telemetry"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "circuit-planner.db"
	defaultRunsLimit     = 20
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	// DisableArtifacts skips writing benchmarks/<run-id>.
	DisableArtifacts bool
	Logger           *slog.Logger
	// Registerer receives the search metrics. Nil disables them.
	Registerer prometheus.Registerer
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *telemetry.SearchMetrics

	benchmarksDir    string
	exportsDir       string
	disableArtifacts bool

	initMu      sync.Mutex
	initialized bool
}

type RunRequest struct {
	// Config is used as given. A zero Config means config.Default().
	Config config.Run
	// ContinuePopulationID seeds the search with a stored population.
	ContinuePopulationID string
	Observers            []evo.Observer
}

type RunSummary struct {
	RunID           string
	PopulationID    string
	ArtifactsDir    string
	BestByIteration []float64
	BestFitness     float64
	ExactRecoveries int
	BestWiring      model.Wiring
	Elapsed         time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Target           string
	Seed             int64
	Population       int
	Iterations       int
	FinalBestFitness float64
	ExactRecoveries  int
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

// UnitSignal is the polynomial a unit of the best wiring computes.
type UnitSignal struct {
	Unit   int
	Type   model.UnitType
	Poly   model.Polynomial
	Target bool
}

type RunDetail struct {
	Run        model.Run
	Summary    stats.ConvergenceSummary
	WireLength int
	Score      scoring.Breakdown
	// Signals lists every unit with a valid output, in unit order.
	Signals []UnitSignal
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	client := &Client{
		store:            store,
		logger:           logging.OrDiscard(opts.Logger),
		benchmarksDir:    benchmarksDir,
		exportsDir:       exportsDir,
		disableArtifacts: opts.DisableArtifacts,
	}
	if opts.Registerer != nil {
		client.metrics = telemetry.NewSearchMetrics(opts.Registerer)
	}
	return client, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store. Other methods call it on demand.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if len(cfg.Target) == 0 && cfg.Population == 0 {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	logger := c.logger.With(slog.String("run_id", runID))

	searchCfg := cfg.SearchConfig()
	searchCfg.Logger = logger
	searchCfg.Observers = append(searchCfg.Observers, req.Observers...)
	if c.metrics != nil {
		searchCfg.Observers = append(searchCfg.Observers, c.metrics)
	}
	if req.ContinuePopulationID != "" {
		population, ok, err := c.store.GetPopulation(ctx, req.ContinuePopulationID)
		if err != nil {
			return RunSummary{}, fmt.Errorf("load population %s: %w", req.ContinuePopulationID, err)
		}
		if !ok {
			return RunSummary{}, fmt.Errorf("population %s not found", req.ContinuePopulationID)
		}
		searchCfg.Initial = population.Wirings
	}

	search, err := evo.NewStochasticSearch(searchCfg)
	if err != nil {
		return RunSummary{}, err
	}

	logger.Info("run started",
		slog.String("target", searchCfg.Target.String()),
		slog.Int("population", cfg.Population),
		slog.Int("iterations", cfg.Train.Iterations),
		slog.Int("cycles", cfg.Train.Cycles),
		slog.Int("clones", cfg.Train.Clones),
		slog.Int64("seed", cfg.Seed),
	)
	started := time.Now()
	result, err := search.Train(ctx, cfg.Train)
	if err != nil {
		return RunSummary{}, fmt.Errorf("train: %w", err)
	}
	elapsed := time.Since(started)

	run := buildRun(runID, cfg, searchCfg.Target, result)
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	population := model.Population{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		RunID:           runID,
		Wirings:         result.FinalPopulation,
	}
	if err := c.store.SavePopulation(ctx, population); err != nil {
		return RunSummary{}, fmt.Errorf("save population: %w", err)
	}

	summary := RunSummary{
		RunID:           runID,
		PopulationID:    population.ID,
		BestByIteration: result.BestByIteration(),
		BestFitness:     result.BestFitness,
		ExactRecoveries: result.ExactRecoveries,
		BestWiring:      result.BestWiring,
		Elapsed:         elapsed,
	}
	if !c.disableArtifacts {
		artifacts := stats.ArtifactsFromRun(run)
		artifacts.Config.ContinuePopulationID = req.ContinuePopulationID
		runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, artifacts)
		if err != nil {
			return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
		}
		if err := stats.AppendRunIndex(c.benchmarksDir, stats.IndexEntryFromRun(run)); err != nil {
			return RunSummary{}, fmt.Errorf("update run index: %w", err)
		}
		summary.ArtifactsDir = runDir
	}

	logger.Info("run finished",
		slog.Float64("best_fitness", result.BestFitness),
		slog.Int("exact_recoveries", result.ExactRecoveries),
		slog.Duration("elapsed", elapsed),
	)
	return summary, nil
}

// Runs lists indexed runs newest first. The artifact index is used when
// present so runs from earlier processes are visible with the memory store.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if err := c.Init(ctx); err != nil {
			return nil, err
		}
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			entries = append(entries, stats.IndexEntryFromRun(run))
		}
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Target:           e.Target,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Iterations:       e.Iterations,
			FinalBestFitness: e.FinalBestFitness,
			ExactRecoveries:  e.ExactRecoveries,
		})
	}
	return out, nil
}

// Show loads a run and re-evaluates its best wiring.
func (c *Client) Show(ctx context.Context, req ShowRequest) (RunDetail, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return RunDetail{}, err
	}
	run, err := c.loadRun(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}

	detail := RunDetail{
		Run:     run,
		Summary: stats.Summarize(run.History),
	}
	if run.BestWiring.Validate() != nil {
		return detail, nil
	}

	evaluator := propagation.NewEvaluator(c.logger)
	outputs := evaluator.Outputs(run.BestWiring)
	scorer, err := scoring.NewScorer(run.Target, scoring.ParamsFromWeights(run.Scoring), evaluator)
	if err != nil {
		return RunDetail{}, fmt.Errorf("rebuild scorer for run %s: %w", runID, err)
	}
	detail.Score = scorer.ScoreOutputs(run.BestWiring, outputs).Breakdown
	detail.WireLength = routing.WiringLength(run.BestWiring)
	target := run.Target.Canonical()
	for unit, out := range outputs[:model.UnitCount] {
		if !out.IsValid() {
			continue
		}
		detail.Signals = append(detail.Signals, UnitSignal{
			Unit:   unit,
			Type:   model.TypeOf(unit),
			Poly:   out.Poly,
			Target: out.Poly.Equal(target),
		})
	}
	return detail, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if runID != "" {
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

// loadRun prefers the store and falls back to the artifacts on disk.
func (c *Client) loadRun(ctx context.Context, runID string) (model.Run, error) {
	if err := c.Init(ctx); err != nil {
		return model.Run{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.Run{}, err
	}
	if ok {
		return run, nil
	}

	cfg, ok, err := stats.ReadRunConfig(c.benchmarksDir, runID)
	if err != nil {
		return model.Run{}, err
	}
	if !ok {
		return model.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	history, _, err := stats.ReadFitnessHistory(c.benchmarksDir, runID)
	if err != nil {
		return model.Run{}, err
	}
	best, _, err := stats.ReadBestWiring(c.benchmarksDir, runID)
	if err != nil {
		return model.Run{}, err
	}
	run = model.Run{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		Target:          cfg.Target,
		PopulationSize:  cfg.PopulationSize,
		Iterations:      cfg.Iterations,
		Cycles:          cfg.Cycles,
		Clones:          cfg.Clones,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
		Scoring:         cfg.Scoring,
		Noise:           cfg.Noise,
		History:         history.Iterations,
		BestFitness:     history.FinalBestFitness,
		ExactRecoveries: best.ExactRecoveries,
		BestWiring:      best.Wiring,
	}
	return run, nil
}

func buildRun(runID string, cfg config.Run, target model.Polynomial, result evo.RunResult) model.Run {
	history := make([]model.IterationRecord, len(result.History))
	for i, h := range result.History {
		history[i] = h.Record()
	}
	return model.Run{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Target:          target,
		PopulationSize:  cfg.Population,
		Iterations:      cfg.Train.Iterations,
		Cycles:          cfg.Train.Cycles,
		Clones:          cfg.Train.Clones,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
		Scoring:         cfg.Scoring.Weights(),
		Noise:           cfg.Noise.Settings(),
		History:         history,
		BestFitness:     result.BestFitness,
		ExactRecoveries: result.ExactRecoveries,
		BestWiring:      result.BestWiring,
	}
}
