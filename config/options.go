package config

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/jpalmerr/gatewatch"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options do not include a logger; callers add [gatewatch.WithLogger].
func BuildOptions(cfg *Config) ([]gatewatch.Option, error) {
	var srcOpts []gatewatch.SourceOption

	if cfg.Timeout != 0 {
		srcOpts = append(srcOpts, gatewatch.WithTimeout(cfg.Timeout.Duration()))
	}
	if len(cfg.Headers) > 0 {
		srcOpts = append(srcOpts, gatewatch.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	src, err := gatewatch.NewSource(cfg.RecordsURL, srcOpts...)
	if err != nil {
		return nil, err
	}

	opts := []gatewatch.Option{
		gatewatch.WithSource(src),
		gatewatch.WithPort(cfg.Port),
		gatewatch.WithLocation(cfg.Location()),
	}
	if cfg.Title != "" {
		opts = append(opts, gatewatch.WithTitle(cfg.Title))
	}
	if cfg.PollInterval != 0 {
		opts = append(opts, gatewatch.WithPollingInterval(cfg.PollInterval.Duration()))
	}
	if cfg.StatusInterval != 0 {
		opts = append(opts, gatewatch.WithStatusInterval(cfg.StatusInterval.Duration()))
	}

	return opts, nil
}

// SlogLevel returns the slog level for LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
