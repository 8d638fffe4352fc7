package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/pkg/circuitplanner"
)

func newRunsCmd(global *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := global.client(cmd, cfg, circuitplanner.Options{})
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Runs(cmd.Context(), circuitplanner.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCREATED\tTARGET\tPOP\tITER\tBEST\tEXACT")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%d\n",
					item.RunID,
					relativeTime(item.CreatedAtUTC),
					item.Target,
					item.Population,
					item.Iterations,
					humanize.FtoaWithDigits(item.FinalBestFitness, 4),
					item.ExactRecoveries,
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func newShowCmd(global *globalFlags) *cobra.Command {
	var (
		runID   string
		latest  bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a run and the signals of its best wiring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := global.client(cmd, cfg, circuitplanner.Options{})
			if err != nil {
				return err
			}
			defer client.Close()

			detail, err := client.Show(cmd.Context(), circuitplanner.ShowRequest{RunID: runID, Latest: latest})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, detail)
			}
			printDetail(out, detail)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "show the most recent run from the run index")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the run detail as JSON")
	return cmd
}

func newExportCmd(global *globalFlags) *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts of a run to an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := global.client(cmd, cfg, circuitplanner.Options{})
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), circuitplanner.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the most recent run from the run index")
	cmd.Flags().StringVar(&outDir, "out", "", "export output directory (defaults to --exports-dir)")
	return cmd
}

func printDetail(out io.Writer, detail circuitplanner.RunDetail) {
	run := detail.Run
	fmt.Fprintf(out, "run_id=%s target=%s population=%d seed=%d\n", run.ID, run.Target, run.PopulationSize, run.Seed)
	fmt.Fprintf(out, "iterations=%d cycles=%d clones=%d workers=%d\n", run.Iterations, run.Cycles, run.Clones, run.Workers)
	fmt.Fprintf(out, "best_fitness=%s exact_recoveries=%d wire_length=%d connections=%d\n",
		humanize.FtoaWithDigits(run.BestFitness, 4),
		run.ExactRecoveries,
		detail.WireLength,
		run.BestWiring.Connections(),
	)
	s := detail.Summary
	fmt.Fprintf(out, "initial_best=%s improvement=%s first_exact_iteration=%d stall_iterations=%d\n",
		humanize.FtoaWithDigits(s.InitialBest, 4),
		humanize.FtoaWithDigits(s.Improvement, 4),
		s.FirstExactIteration,
		s.StallIterations,
	)
	if len(detail.Signals) == 0 {
		fmt.Fprintln(out, "no unit carries a valid signal")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tROW\tTYPE\tSIGNAL\tTARGET")
	for _, sig := range detail.Signals {
		marker := ""
		if sig.Target {
			marker = "*"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", sig.Unit, model.PositionOf(sig.Unit).Row, sig.Type, sig.Poly, marker)
	}
	_ = tw.Flush()
}

func relativeTime(createdAtUTC string) string {
	ts, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(ts)
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
