package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiremeet/internal/app"
	"github.com/vovakirdan/wiremeet/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the meeting server",
	RunE:  runServe,
}

var serveAddr string

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{Addr: serveAddr})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting wiremeet server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
