// Standalone mock records server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/gatewatch serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/gatewatch/example/internal/mockgate"
)

func main() {
	fmt.Println("Mock gate server starting on :5000")
	fmt.Println("GET /get_records returns the 20 latest movements; a vehicle moves every few seconds")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv := &http.Server{
		Addr:              ":5000",
		Handler:           mockgate.New(nil).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
