package cli

import (
	"fmt"
	"os"

	"starmatch/internal/config"
	"starmatch/internal/logger"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "starmatch",
		Short:        "Star Wars personality quiz with selfie mashups",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config (default: ./config.yaml or ./config/config.yaml)")
	cmd.AddCommand(NewServeCmd(&configPath))
	cmd.AddCommand(NewPlayCmd(&configPath))
	cmd.AddCommand(NewAdminCmd(&configPath))
	return cmd
}

// bootstrap loads the configuration and initializes the global logger.
func bootstrap(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
