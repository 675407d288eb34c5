// Package main is the entry point for the gatewatch CLI.
//
// GateWatch can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	gatewatch serve -c config.yaml      # Start the dashboard
//	gatewatch validate -c config.yaml   # Validate configuration
//	gatewatch format 2024-01-15T10:30Z  # Convert timestamps to IST
//	gatewatch version                   # Show version info
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "gatewatch",
	Short: "A live vehicle gate dashboard",
	Long: `GateWatch is a live dashboard for a vehicle gate.

It polls the gate's records endpoint, shows the latest entries and exits
with timestamps in IST, and displays entry/exit camera indicators. The page
updates over Server-Sent Events.

Quick start:
  1. Create a config file (gatewatch.yaml)
  2. Run: gatewatch serve -c gatewatch.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  records_url: http://gate.local/get_records
  poll_interval: 5s
  status_interval: 10s

Settings can also come from GATEWATCH_* environment variables or a .env
file in the working directory.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this gatewatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gatewatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
