package main

import (
	"github.com/salesdeck/insight-console/internal/config"
	"github.com/salesdeck/insight-console/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "insight-console",
	Short: "Console tracking icebreaker and transcript generation jobs.",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the environment and installs the global logger.
// The returned func flushes and restores the previous logger.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	logger := log.InitLog(log.Level(cfg.Service.LogLevel), cfg.Service.LogFormat)
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}, nil
}
