// Package gatewatch provides an embeddable vehicle gate dashboard that keeps
// a records table and two camera indicators refreshed in real time.
//
// GateWatch polls an external records endpoint (conventionally
// /get_records), renders the returned vehicle records into the dashboard's
// table with timestamps converted to IST, and flips the entry and exit
// camera indicators between online and offline on a separate timer. The
// browser page is served by the same process and receives every update over
// Server-Sent Events.
//
// # Quick Start
//
//	src, _ := gatewatch.NewSource("http://gate.local/get_records")
//	gw, _ := gatewatch.New(gatewatch.WithSource(src))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	gw.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// GateWatch uses the functional options pattern for configuration:
//
//	gw, err := gatewatch.New(
//	    gatewatch.WithSource(src),
//	    gatewatch.WithPollingInterval(5 * time.Second),
//	    gatewatch.WithStatusInterval(10 * time.Second),
//	    gatewatch.WithPort(9090),
//	    gatewatch.WithTitle("North Gate"),
//	)
//
// The records source can carry request options:
//
//	src, err := gatewatch.NewSource("https://gate.example.com/get_records",
//	    gatewatch.WithHeaders("Authorization", "Bearer token"),
//	    gatewatch.WithTimeout(5 * time.Second),
//	)
//
// # Refresh semantics
//
// Both loops run once immediately and then on their own interval. A records
// poll that is still in flight when the next tick fires causes that tick to
// be skipped. A failed poll leaves the previously rendered table in place.
//
// # Architecture
//
// GateWatch consists of several internal packages (under internal/):
//
//   - internal/poller: records HTTP client and the job scheduler
//   - internal/timefmt: IST timestamp formatting and strict parsing
//   - internal/render: record-to-row rules and the table body template
//   - internal/camera: the camera status simulator
//   - internal/store: in-memory dashboard state with pub/sub
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/metrics: Prometheus collectors
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package gatewatch
