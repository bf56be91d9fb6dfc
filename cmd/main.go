package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Koyo-os/questionnaire-service/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFiles   []string
	)

	rootCmd := &cobra.Command{
		Use:          "questionnaire-service",
		Short:        "Build questionnaires, collect answers and review results",
		Long:         `Runs an interactive questionnaire session on stdin/stdout together with the health and metrics endpoint.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Init(configPath, envFiles...)
			if err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Init(configPath, envFiles...)
			if err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cfg)
		},
	})

	return rootCmd
}
