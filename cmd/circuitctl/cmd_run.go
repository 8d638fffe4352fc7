package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adi-muresan/circuit-planner/internal/config"
	"github.com/adi-muresan/circuit-planner/internal/evo"
	"github.com/adi-muresan/circuit-planner/pkg/circuitplanner"
)

type runFlags struct {
	target      []int
	population  int
	iterations  int
	cycles      int
	clones      int
	seed        int64
	workers     int
	continuePop string
	metricsAddr string
	progress    bool
	jsonOut     bool
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a stochastic search and persist the result",
		Example: `  circuitctl run
  circuitctl run --target 7,3 --iterations 40 --seed 7
  circuitctl run -c run.yaml --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSearch(cmd, global, flags, cfg)
		},
	}

	f := cmd.Flags()
	f.IntSliceVar(&flags.target, "target", nil, "target exponents, e.g. 7,3")
	f.IntVar(&flags.population, "population", 0, "number of wirings")
	f.IntVar(&flags.iterations, "iterations", 0, "training iterations")
	f.IntVar(&flags.cycles, "cycles", 0, "score and clone cycles per iteration")
	f.IntVar(&flags.clones, "clones", 0, "clone operations per cycle")
	f.Int64Var(&flags.seed, "seed", 0, "random seed")
	f.IntVar(&flags.workers, "workers", 0, "parallel workers for scoring and noise")
	f.StringVar(&flags.continuePop, "continue-population", "", "seed the search with a stored population id")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	f.BoolVar(&flags.progress, "progress", false, "print one line per iteration")
	f.BoolVar(&flags.jsonOut, "json", false, "emit the run summary as JSON")
	return cmd
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Run) {
	changed := cmd.Flags().Changed
	if changed("target") {
		cfg.Target = append([]int(nil), f.target...)
	}
	if changed("population") {
		cfg.Population = f.population
	}
	if changed("iterations") {
		cfg.Train.Iterations = f.iterations
	}
	if changed("cycles") {
		cfg.Train.Cycles = f.cycles
	}
	if changed("clones") {
		cfg.Train.Clones = f.clones
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
}

func runSearch(cmd *cobra.Command, global *globalFlags, flags *runFlags, cfg config.Run) error {
	ctx := cmd.Context()
	opts := circuitplanner.Options{}

	if flags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Registerer = reg
		stop, err := serveMetrics(ctx, flags.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	client, err := global.client(cmd, cfg, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	req := circuitplanner.RunRequest{
		Config:               cfg,
		ContinuePopulationID: flags.continuePop,
	}
	out := cmd.OutOrStdout()
	if flags.progress && !flags.jsonOut {
		req.Observers = append(req.Observers, evo.ObserverFunc(func(r evo.IterationReport) {
			fmt.Fprintf(out, "iteration=%d/%d best=%s iteration_best=%s exact=%d fraction=%.3f mutations=%s\n",
				r.Iteration, cfg.Train.Iterations,
				humanize.FtoaWithDigits(r.BestFitness, 4),
				humanize.FtoaWithDigits(r.IterationBest, 4),
				r.ExactRecoveries, r.Fraction,
				humanize.Comma(int64(r.Mutations)),
			)
		}))
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID           string    `json:"run_id"`
			PopulationID    string    `json:"population_id"`
			ArtifactsDir    string    `json:"artifacts_dir,omitempty"`
			BestByIteration []float64 `json:"best_by_iteration"`
			BestFitness     float64   `json:"best_fitness"`
			ExactRecoveries int       `json:"exact_recoveries"`
			ElapsedMS       int64     `json:"elapsed_ms"`
		}{
			RunID:           summary.RunID,
			PopulationID:    summary.PopulationID,
			ArtifactsDir:    summary.ArtifactsDir,
			BestByIteration: summary.BestByIteration,
			BestFitness:     summary.BestFitness,
			ExactRecoveries: summary.ExactRecoveries,
			ElapsedMS:       summary.Elapsed.Milliseconds(),
		})
	}

	fmt.Fprintf(out, "run_id=%s best_fitness=%s exact_recoveries=%d iterations=%d elapsed=%s\n",
		summary.RunID,
		humanize.FtoaWithDigits(summary.BestFitness, 4),
		summary.ExactRecoveries,
		len(summary.BestByIteration),
		summary.Elapsed.Round(time.Millisecond),
	)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Default().Warn("metrics server stopped", slog.Any("error", err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
