package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Adaptive assessment and auto-grading engine",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := utils.NewLogger(cfg.Environment, cfg.SlogLevel())
	slog.SetDefault(logger)
	return cfg, logger, nil
}
