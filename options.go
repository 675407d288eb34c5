package gatewatch

import (
	"errors"
	"log/slog"
	"time"
)

// gwConfig holds mutable state during GateWatch construction.
type gwConfig struct {
	title            string
	source           *Source
	pollingInterval  time.Duration
	statusInterval   time.Duration
	port             int
	maxConcurrency   int
	location         *time.Location
	logger           *slog.Logger
	recordsCallbacks []func(RecordsResult)
	cameraCallbacks  []func(CameraStatus)
}

// Option is a function that configures a [GateWatch] instance during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithSource], [WithPollingInterval], [WithStatusInterval],
// [WithPort], [WithTitle], [WithLogger], [WithLocation],
// [WithRecordsCallback], [WithCameraCallback], [WithMaxConcurrency].
type Option func(*gwConfig) error

// WithSource sets the records endpoint to poll. Required.
//
// Example:
//
//	src, _ := gatewatch.NewSource("http://gate.local/get_records")
//	gw, err := gatewatch.New(gatewatch.WithSource(src))
func WithSource(s Source) Option {
	return func(cfg *gwConfig) error {
		if s.url == "" {
			return errors.New("source must be created with NewSource")
		}
		cfg.source = &s
		return nil
	}
}

// WithPollingInterval sets how often the records endpoint is polled.
//
// The first poll happens immediately on [GateWatch.Start]. A tick that fires
// while the previous poll is still running is skipped.
// Defaults to 5 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *gwConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithStatusInterval sets how often the camera indicators are re-drawn.
// Defaults to 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithStatusInterval(d time.Duration) Option {
	return func(cfg *gwConfig) error {
		if d <= 0 {
			return errors.New("status interval must be positive")
		}
		cfg.statusInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *gwConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many scheduled jobs may run at the same time.
//
// GateWatch schedules two jobs (records and cameras), so values above 2 have
// no further effect. A value of 1 serialises them. Defaults to 2.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *gwConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLocation sets the time zone record timestamps are displayed in.
// Defaults to IST (fixed UTC+05:30).
//
// Returns an error if loc is nil.
func WithLocation(loc *time.Location) Option {
	return func(cfg *gwConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the GateWatch instance.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	gw, err := gatewatch.New(
//	    gatewatch.WithSource(src),
//	    gatewatch.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *gwConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRecordsCallback registers a function to be called after every records
// poll, successful or not.
//
// Callbacks run on the records job after the dashboard table has been
// updated, in registration order, and never concurrently with each other.
// They must be non-blocking: a slow callback delays the next poll, whose
// ticks are skipped meanwhile. Panics are recovered and logged.
//
// Example:
//
//	gw, err := gatewatch.New(
//	    gatewatch.WithSource(src),
//	    gatewatch.WithRecordsCallback(func(r gatewatch.RecordsResult) {
//	        if r.Error != nil {
//	            log.Printf("records poll failed: %v", r.Error)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithRecordsCallback(cb func(RecordsResult)) Option {
	return func(cfg *gwConfig) error {
		if cb == nil {
			return nil
		}
		cfg.recordsCallbacks = append(cfg.recordsCallbacks, cb)
		return nil
	}
}

// WithCameraCallback registers a function to be called for every simulated
// camera indicator change. Same rules as [WithRecordsCallback].
//
// Nil callbacks are silently ignored.
func WithCameraCallback(cb func(CameraStatus)) Option {
	return func(cfg *gwConfig) error {
		if cb == nil {
			return nil
		}
		cfg.cameraCallbacks = append(cfg.cameraCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "GateWatch".
func WithTitle(title string) Option {
	return func(cfg *gwConfig) error {
		cfg.title = title
		return nil
	}
}
