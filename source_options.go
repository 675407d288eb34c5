package gatewatch

import (
	"errors"
	"time"
)

// sourceConfig holds mutable state during source construction.
type sourceConfig struct {
	headers map[string]string
	timeout time.Duration
}

// SourceOption configures a [Source] during construction.
//
// Built-in options: [WithHeaders], [WithTimeout].
type SourceOption func(*sourceConfig) error

// WithHeaders adds HTTP headers to every records request, typically an
// auth token or session cookie for the upstream.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	src, err := gatewatch.NewSource(url,
//	    gatewatch.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout for records polls.
//
// A poll that exceeds it fails and the dashboard keeps its previous table.
// Defaults to 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
