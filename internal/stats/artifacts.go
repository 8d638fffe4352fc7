// Package stats writes, indexes and exports per-run artifacts on disk.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	fitnessHistoryFile = "fitness_history.json"
	bestWiringFile     = "best_wiring.json"
	summaryFile        = "summary.json"
	fitnessSeriesFile  = "fitness_series.csv"
)

type RunConfig struct {
	RunID          string               `json:"run_id"`
	Target         model.Polynomial     `json:"target"`
	PopulationSize int                  `json:"population_size"`
	Iterations     int                  `json:"iterations"`
	Cycles         int                  `json:"cycles"`
	Clones         int                  `json:"clones"`
	Seed           int64                `json:"seed"`
	Workers        int                  `json:"workers"`
	Scoring        model.ScoringWeights `json:"scoring"`
	Noise          model.NoiseSettings  `json:"noise"`
	// ContinuePopulationID names the stored population the run started from.
	ContinuePopulationID string `json:"continue_population_id,omitempty"`
}

type FitnessHistory struct {
	BestByIteration  []float64               `json:"best_by_iteration"`
	Iterations       []model.IterationRecord `json:"iterations"`
	FinalBestFitness float64                 `json:"final_best_fitness"`
}

type BestWiring struct {
	Fitness         float64      `json:"fitness"`
	ExactRecoveries int          `json:"exact_recoveries"`
	Wiring          model.Wiring `json:"wiring"`
	// Connections lists every connected slot as [source, unit].
	Connections [][2]int `json:"connections"`
}

type RunArtifacts struct {
	Config          RunConfig               `json:"config"`
	History         []model.IterationRecord `json:"history"`
	FinalBest       float64                 `json:"final_best_fitness"`
	ExactRecoveries int                     `json:"exact_recoveries"`
	BestWiring      model.Wiring            `json:"best_wiring"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Target           string  `json:"target"`
	PopulationSize   int     `json:"population_size"`
	Iterations       int     `json:"iterations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	ExactRecoveries  int     `json:"exact_recoveries"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// ArtifactsFromRun collects the artifact view of a persisted run.
func ArtifactsFromRun(run model.Run) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:          run.ID,
			Target:         run.Target,
			PopulationSize: run.PopulationSize,
			Iterations:     run.Iterations,
			Cycles:         run.Cycles,
			Clones:         run.Clones,
			Seed:           run.Seed,
			Workers:        run.Workers,
			Scoring:        run.Scoring,
			Noise:          run.Noise,
		},
		History:         run.History,
		FinalBest:       run.BestFitness,
		ExactRecoveries: run.ExactRecoveries,
		BestWiring:      run.BestWiring,
	}
}

func IndexEntryFromRun(run model.Run) RunIndexEntry {
	return RunIndexEntry{
		RunID:            run.ID,
		Target:           run.Target.String(),
		PopulationSize:   run.PopulationSize,
		Iterations:       run.Iterations,
		Seed:             run.Seed,
		Workers:          run.Workers,
		FinalBestFitness: run.BestFitness,
		ExactRecoveries:  run.ExactRecoveries,
		CreatedAtUTC:     run.CreatedAtUTC,
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	history := FitnessHistory{
		BestByIteration:  bestByIteration(artifacts.History),
		Iterations:       artifacts.History,
		FinalBestFitness: artifacts.FinalBest,
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bestWiringFile), BestWiring{
		Fitness:         artifacts.FinalBest,
		ExactRecoveries: artifacts.ExactRecoveries,
		Wiring:          artifacts.BestWiring,
		Connections:     artifacts.BestWiring.Edges(),
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), Summarize(artifacts.History)); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, history.BestByIteration); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index newest first. Entries sharing a timestamp
// keep the most recently appended one in front.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// readRunIndex returns the index in append order.
func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries := []RunIndexEntry{}
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportRunArtifacts copies a run directory under outDir and returns the
// new directory.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, fitnessHistoryFile, bestWiringFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{summaryFile, fitnessSeriesFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func ReadFitnessHistory(baseDir, runID string) (FitnessHistory, bool, error) {
	var history FitnessHistory
	ok, err := readJSON(filepath.Join(baseDir, runID, fitnessHistoryFile), &history)
	return history, ok, err
}

func ReadBestWiring(baseDir, runID string) (BestWiring, bool, error) {
	var best BestWiring
	ok, err := readJSON(filepath.Join(baseDir, runID, bestWiringFile), &best)
	return best, ok, err
}

func WriteFitnessSeries(runDir string, bestByIteration []float64) error {
	path := filepath.Join(runDir, fitnessSeriesFile)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"iteration", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByIteration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(baseDir, runID string) ([]float64, bool, error) {
	path := filepath.Join(baseDir, runID, fitnessSeriesFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 32)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fitness series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func bestByIteration(history []model.IterationRecord) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[i] = h.BestFitness
	}
	return out
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
