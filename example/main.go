package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/gatewatch"
	"github.com/jpalmerr/gatewatch/example/internal/mockgate"
)

func main() {
	// start an in-process mock gate
	go func() {
		srv := &http.Server{Addr: ":9999", Handler: mockgate.New(nil).Handler(), ReadHeaderTimeout: 5 * time.Second}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("mock gate error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	src, err := gatewatch.NewSource("http://localhost:9999/get_records",
		gatewatch.WithTimeout(3*time.Second),
	)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	gw, err := gatewatch.New(
		gatewatch.WithSource(src),
		gatewatch.WithTitle("GateWatch Demo"),
		gatewatch.WithPort(8080),
		gatewatch.WithRecordsCallback(func(r gatewatch.RecordsResult) {
			if r.Error != nil {
				slog.Warn("records poll failed", "error", r.Error)
			}
		}),
		gatewatch.WithCameraCallback(func(c gatewatch.CameraStatus) {
			slog.Debug("camera changed", "camera", c.Camera, "state", c.State.String())
		}),
	)
	if err != nil {
		slog.Error("failed to create gatewatch", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  GateWatch Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  Records refresh every 5s, camera indicators every 10s")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gw.Start(ctx); err != nil {
		slog.Error("gatewatch error", "error", err)
		os.Exit(1)
	}
}
