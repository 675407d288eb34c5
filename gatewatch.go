package gatewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/gatewatch/dashboard"
	"github.com/jpalmerr/gatewatch/internal/camera"
	"github.com/jpalmerr/gatewatch/internal/metrics"
	"github.com/jpalmerr/gatewatch/internal/poller"
	"github.com/jpalmerr/gatewatch/internal/render"
	"github.com/jpalmerr/gatewatch/internal/server"
	"github.com/jpalmerr/gatewatch/internal/store"
	"github.com/jpalmerr/gatewatch/internal/timefmt"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultStatusInterval  = 10 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 2
)

// Scheduled job names, also used as metric labels.
const (
	jobRecords = "records"
	jobCameras = "cameras"
)

// GateWatch is the main orchestrator for the records poll, the camera
// simulator, and the dashboard server.
//
// It is created using [New] with functional options and started with
// [GateWatch.Start].
//
// The typical lifecycle is:
//
//	gw, err := gatewatch.New(gatewatch.WithSource(src))
//	if err != nil {
//	    slog.Error("failed to create gatewatch", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	gw.Start(ctx) // blocks until context cancelled
type GateWatch struct {
	title            string
	source           Source
	pollingInterval  time.Duration
	statusInterval   time.Duration
	port             int
	maxConcurrency   int
	location         *time.Location
	logger           *slog.Logger
	recordsCallbacks []func(RecordsResult)
	cameraCallbacks  []func(CameraStatus)
}

// New creates a new [GateWatch] instance with the given options.
//
// A records source must be configured via [WithSource]. Other options have
// defaults:
//   - Polling interval: 5 seconds
//   - Status interval: 10 seconds
//   - Port: 8080
//   - Location: IST (UTC+05:30)
//   - Max concurrency: 2
//
// Returns an error if no source is configured or if any option is invalid.
func New(opts ...Option) (*GateWatch, error) {
	cfg := &gwConfig{
		pollingInterval: defaultPollingInterval,
		statusInterval:  defaultStatusInterval,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
		location:        timefmt.IST,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.source == nil {
		return nil, errors.New("a records source is required")
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GateWatch{
		title:            cfg.title,
		source:           *cfg.source,
		pollingInterval:  cfg.pollingInterval,
		statusInterval:   cfg.statusInterval,
		port:             cfg.port,
		maxConcurrency:   cfg.maxConcurrency,
		location:         cfg.location,
		logger:           logger,
		recordsCallbacks: cfg.recordsCallbacks,
		cameraCallbacks:  cfg.cameraCallbacks,
	}, nil
}

// Start begins polling records, simulating camera states, and serving the
// dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The records endpoint is polled immediately, then every polling interval
//   - The camera indicators are drawn immediately, then every status interval
//   - The HTTP server serves the dashboard at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (gw *GateWatch) Start(ctx context.Context) error {
	gw.logger.Info("gatewatch starting", "records_url", gw.source.url)
	gw.logger.Info("refresh configured",
		"poll_interval", gw.pollingInterval.String(),
		"status_interval", gw.statusInterval.String(),
	)
	gw.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", gw.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	dashStore := store.NewMemoryStore()
	client := poller.NewClient()
	defer client.Close()

	r := gw.newRefresher(dashStore, client, camera.NewSimulator(nil))

	scheduler, err := poller.NewScheduler(r.jobs(gw.pollingInterval, gw.statusInterval), gw.maxConcurrency, gw.logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.Start(ctx)

	// track the results consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			gw.observe(result)
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
	}

	httpServer := server.NewServer(dashStore, gw.port, dashboard.Assets, gw.title, gw.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	gw.logger.Info("gatewatch stopped")
	return nil
}

// observe logs and records metrics for one scheduler result.
func (gw *GateWatch) observe(result poller.RunResult) {
	logAttrs := []any{
		"job", result.Job,
		"duration_ms", result.Duration.Milliseconds(),
	}

	switch {
	case result.Skipped:
		metrics.ObserveJob(result.Job, metrics.OutcomeSkipped, 0)
		gw.logger.Warn("tick skipped, previous run still in flight", "job", result.Job)
	case result.Error != nil:
		metrics.ObserveJob(result.Job, metrics.OutcomeError, result.Duration)
		gw.logger.Warn("job run failed", append(logAttrs, "error", result.Error.Error())...)
	default:
		metrics.ObserveJob(result.Job, metrics.OutcomeSuccess, result.Duration)
		gw.logger.Debug("job run completed", logAttrs...)
	}
}

// Source returns the configured records source.
func (gw *GateWatch) Source() Source {
	return gw.source
}

// Port returns the configured HTTP port for the dashboard server.
func (gw *GateWatch) Port() int {
	return gw.port
}

// PollingInterval returns the interval between records polls.
func (gw *GateWatch) PollingInterval() time.Duration {
	return gw.pollingInterval
}

// StatusInterval returns the interval between camera indicator updates.
func (gw *GateWatch) StatusInterval() time.Duration {
	return gw.statusInterval
}

// refresher holds the work done by the two scheduled jobs.
type refresher struct {
	source           Source
	client           *poller.Client
	formatter        *timefmt.Formatter
	sim              *camera.Simulator
	store            store.Store
	logger           *slog.Logger
	recordsCallbacks []func(RecordsResult)
	cameraCallbacks  []func(CameraStatus)
}

func (gw *GateWatch) newRefresher(st store.Store, client *poller.Client, sim *camera.Simulator) *refresher {
	return &refresher{
		source:           gw.source,
		client:           client,
		formatter:        timefmt.New(gw.location, gw.logger),
		sim:              sim,
		store:            st,
		logger:           gw.logger,
		recordsCallbacks: gw.recordsCallbacks,
		cameraCallbacks:  gw.cameraCallbacks,
	}
}

func (r *refresher) jobs(pollEvery, statusEvery time.Duration) []poller.Job {
	return []poller.Job{
		{Name: jobRecords, Interval: pollEvery, Timeout: r.source.timeout, Run: r.pollRecords},
		{Name: jobCameras, Interval: statusEvery, Run: r.tickCameras},
	}
}

// pollRecords fetches the records and, on success, replaces the dashboard
// table. On failure the table is left as it was.
func (r *refresher) pollRecords(ctx context.Context) error {
	fetchedAt := time.Now()
	resp := r.client.FetchRecords(ctx, r.source.url, r.source.headers, r.source.timeout)

	if resp.Error != nil && errors.Is(ctx.Err(), context.Canceled) {
		// shutting down; not a poll failure worth reporting
		return ctx.Err()
	}

	result := RecordsResult{
		URL:        r.source.url,
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
		FetchedAt:  fetchedAt,
		Error:      resp.Error,
	}

	if resp.Error == nil {
		rows := render.BuildRows(resp.Records, r.formatter)
		r.store.ReplaceRecords(rows, fetchedAt)
		metrics.SetRecords(len(rows), fetchedAt)
		result.Records = toPublicRecords(resp.Records)

		r.logger.Debug("records refreshed",
			"url", r.source.url,
			"rows", len(rows),
			"latency_ms", resp.Latency.Milliseconds(),
		)
	}

	for _, cb := range r.recordsCallbacks {
		invokeCallbackSafe(cb, result, jobRecords, r.logger)
	}

	if resp.Error != nil {
		return fmt.Errorf("fetch records from %s: %w", r.source.url, resp.Error)
	}
	return nil
}

// tickCameras draws a new state for each camera indicator.
func (r *refresher) tickCameras(_ context.Context) error {
	for _, ind := range r.sim.Tick() {
		r.store.SetCamera(store.CameraStatus{
			Camera:    string(ind.Camera),
			ElementID: ind.Camera.ElementID(),
			State:     string(ind.State),
			Class:     ind.Class(),
			Label:     ind.Label(),
			ChangedAt: ind.ChangedAt,
		})
		metrics.SetCamera(string(ind.Camera), ind.State == camera.Online)

		status := CameraStatus{
			Camera:    string(ind.Camera),
			State:     CameraState(ind.State),
			Label:     ind.Label(),
			ChangedAt: ind.ChangedAt,
		}
		for _, cb := range r.cameraCallbacks {
			invokeCallbackSafe(cb, status, jobCameras, r.logger)
		}
	}
	return nil
}

// toPublicRecords converts decoded records to the public type.
func toPublicRecords(in []poller.Record) []Record {
	out := make([]Record, len(in))
	for i, rec := range in {
		out[i] = Record{
			VehicleNumber: rec.VehicleNumber.String(),
			Camera:        rec.Camera.String(),
			EntryTime:     rec.EntryTime.String(),
			ExitTime:      rec.ExitTime.String(),
			Employee:      rec.Employee.String(),
		}
	}
	return out
}

// invokeCallbackSafe calls a user callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe[T any](cb func(T), v T, kind string, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("callback panicked",
				"correlation_id", uuid.NewString(),
				"callback", kind,
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(v)
}
