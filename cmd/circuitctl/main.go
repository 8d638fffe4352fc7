package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adi-muresan/circuit-planner/internal/config"
	"github.com/adi-muresan/circuit-planner/internal/logging"
	"github.com/adi-muresan/circuit-planner/pkg/circuitplanner"
)

const serviceName = "circuitctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalFlags are shared by every subcommand. Settings given on the command
// line win over the config file.
type globalFlags struct {
	configPath    string
	storeKind     string
	dbPath        string
	benchmarksDir string
	exportsDir    string
	logLevel      string
	logFormat     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Search for wirings of a 150 unit arithmetic grid that compute a target polynomial",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML run config file")
	pf.StringVar(&flags.storeKind, "store", "", "store backend: memory or sqlite")
	pf.StringVar(&flags.dbPath, "db-path", "", "sqlite database path")
	pf.StringVar(&flags.benchmarksDir, "benchmarks-dir", "benchmarks", "run artifacts directory")
	pf.StringVar(&flags.exportsDir, "exports-dir", "exports", "export output directory")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: auto, text, json")

	root.AddCommand(
		newRunCmd(flags),
		newRunsCmd(flags),
		newShowCmd(flags),
		newExportCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// loadConfig reads the config file, or the defaults, and applies the global
// overrides.
func (f *globalFlags) loadConfig(cmd *cobra.Command) (config.Run, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Run{}, err
		}
		cfg = loaded
	}
	changed := cmd.Flags().Changed
	if changed("store") {
		cfg.Store.Kind = f.storeKind
	}
	if changed("db-path") {
		cfg.Store.DBPath = f.dbPath
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("benchmarks-dir") {
		cfg.ArtifactsDir = f.benchmarksDir
	}
	return cfg, nil
}

func (f *globalFlags) logger(cmd *cobra.Command, cfg config.Run) (*slog.Logger, error) {
	logCfg := cfg.LoggingConfig(serviceName)
	logCfg.Output = cmd.ErrOrStderr()
	return logging.New(logCfg)
}

func (f *globalFlags) client(cmd *cobra.Command, cfg config.Run, opts circuitplanner.Options) (*circuitplanner.Client, error) {
	logger, err := f.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	opts.StoreKind = cfg.Store.Kind
	opts.DBPath = cfg.Store.DBPath
	opts.BenchmarksDir = cfg.ArtifactsDir
	opts.ExportsDir = f.exportsDir
	opts.Logger = logger
	if cfg.ArtifactsDir == "" {
		opts.DisableArtifacts = true
		opts.BenchmarksDir = f.benchmarksDir
	}
	return circuitplanner.New(opts)
}
