package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/gatewatch"
	"github.com/jpalmerr/gatewatch/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the GateWatch dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the GateWatch dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Poll the records endpoint and refresh the table
  - Update the camera indicators
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  gatewatch serve -c config.yaml
  gatewatch serve -c config.yaml --env-file /etc/gatewatch/gatewatch.env`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().String("env-file", "", ".env file to load before reading the config, overriding variables already set")
	_ = serveCmd.MarkFlagRequired("config")
}

// loadEnvFile applies path over the current environment. Keys already set,
// including those from the autoloaded .env, are overwritten.
func loadEnvFile(path string) error {
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("config loaded",
		"records_url", cfg.RecordsURL,
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"status_interval", cfg.StatusInterval.Duration().String(),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, gatewatch.WithLogger(logger))

	gw, err := gatewatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create GateWatch: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- gw.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
