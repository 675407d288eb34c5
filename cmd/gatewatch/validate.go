package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/gatewatch/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a GateWatch configuration file without starting the server.

This command parses the YAML, applies GATEWATCH_* overrides, expands
environment variables, and validates all fields. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  gatewatch validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Records URL:     %s\n", cfg.RecordsURL)
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Status interval: %s\n", cfg.StatusInterval.Duration())
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Time zone:       %s\n", cfg.Location())

	return nil
}
