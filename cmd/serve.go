package cmd

import (
	"fmt"

	"github.com/alphaduel/arena/internal/app"
	"github.com/alphaduel/arena/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the debate API server",
	Long: `Starts the debate arena HTTP server, which exposes:
- POST /api/debate/start   run a debate and return the aggregated result
- POST /api/debate/stream  run a debate over Server-Sent Events
- GET  /api/debate/ws      run a debate over a WebSocket
- GET  /api/symbols        list supported symbols
- GET  /health, /ready, /metrics`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
