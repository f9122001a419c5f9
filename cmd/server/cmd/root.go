package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiremeet/internal/config"
	"github.com/vovakirdan/wiremeet/internal/log"
)

var configPath string

// rootCmd runs the meeting server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "wiremeet",
	Short: "Room coordination and signaling relay for multi-party video meetings",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	rootCmd.AddCommand(serveCmd, tokenCmd, historyCmd)
}

// Execute runs the command tree.
func Execute() error {
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// loadConfig resolves configuration and a logger at the configured level.
func loadConfig() (*config.Config, *zerolog.Logger, error) {
	bootLogger := log.New("info")
	cfg, path, err := config.Load(bootLogger, configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("config_path", path).Msg("configuration loaded")
	return &cfg, logger, nil
}
