package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adi-muresan/circuit-planner/internal/config"
)

func newConfigCmd(global *globalFlags) *cobra.Command {
	var (
		writePath string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective run config as YAML",
		Long: `Print the effective run config: the defaults, overlaid with --config and
the global flags. With --write the YAML is saved to a file instead, which is
a convenient starting point for a custom run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if writePath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if !force {
				if _, err := os.Stat(writePath); err == nil {
					return fmt.Errorf("%s already exists; pass --force to overwrite", writePath)
				}
			}
			if err := os.WriteFile(writePath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", writePath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "write the config to this path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
