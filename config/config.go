// Package config provides YAML configuration parsing for GateWatch.
//
// This package enables running GateWatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: North Gate
//	port: 8080
//	records_url: http://gate.local/get_records
//	poll_interval: 5s
//	status_interval: 10s
//	timeout: 10s
//	utc_offset: "+05:30"
//	headers:
//	  Authorization: Bearer ${GATE_TOKEN}
//
// Every scalar key can be overridden from the environment with a GATEWATCH_
// prefix, e.g. GATEWATCH_RECORDS_URL or GATEWATCH_POLL_INTERVAL.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/gatewatch/internal/timefmt"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GATEWATCH_"

// minInterval is the minimum allowed polling and status interval.
// This prevents accidental DoS of the records endpoint.
const minInterval = 1 * time.Second

const (
	defaultPort           = 8080
	defaultPollInterval   = 5 * time.Second
	defaultStatusInterval = 10 * time.Second
	defaultTimeout        = 10 * time.Second
)

// Config is the root configuration structure for GateWatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "GateWatch" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// RecordsURL is the records endpoint, conventionally ending in
	// /get_records. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	RecordsURL string `yaml:"records_url"`

	// Headers are custom HTTP headers sent with each records request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Timeout is the records request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// PollInterval is the time between records polls. Defaults to 5s.
	PollInterval Duration `yaml:"poll_interval"`

	// StatusInterval is the time between camera indicator updates.
	// Defaults to 10s.
	StatusInterval Duration `yaml:"status_interval"`

	// UTCOffset is the display zone as "+hh:mm". Defaults to "+05:30" (IST).
	UTCOffset string `yaml:"utc_offset"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// overrides are the environment variables read on top of the file.
// Zero values mean "not set".
type overrides struct {
	Title          string        `env:"TITLE"`
	Port           int           `env:"PORT"`
	RecordsURL     string        `env:"RECORDS_URL"`
	Timeout        time.Duration `env:"TIMEOUT"`
	PollInterval   time.Duration `env:"POLL_INTERVAL"`
	StatusInterval time.Duration `env:"STATUS_INTERVAL"`
	UTCOffset      string        `env:"UTC_OFFSET"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// GATEWATCH_* environment overrides are applied on top of the file, then
// ${VAR} references are expanded in records_url and header values. Defaults
// are applied for port (8080), poll_interval (5s), status_interval (10s), and
// timeout (10s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.StatusInterval == 0 {
		cfg.StatusInterval = Duration(defaultStatusInterval)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(defaultTimeout)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overlays GATEWATCH_* environment variables.
func (c *Config) applyEnv() error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.RecordsURL != "" {
		c.RecordsURL = o.RecordsURL
	}
	if o.Timeout != 0 {
		c.Timeout = Duration(o.Timeout)
	}
	if o.PollInterval != 0 {
		c.PollInterval = Duration(o.PollInterval)
	}
	if o.StatusInterval != 0 {
		c.StatusInterval = Duration(o.StatusInterval)
	}
	if o.UTCOffset != "" {
		c.UTCOffset = o.UTCOffset
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	return nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minInterval, c.PollInterval.Duration())
	}
	if c.StatusInterval.Duration() < minInterval {
		return fmt.Errorf("status_interval must be at least %s, got %s", minInterval, c.StatusInterval.Duration())
	}
	if c.Timeout.Duration() < time.Second {
		return fmt.Errorf("timeout must be at least 1s, got %s", c.Timeout.Duration())
	}

	if c.RecordsURL == "" {
		return fmt.Errorf("records_url is required (or set %sRECORDS_URL)", EnvPrefix)
	}
	expanded, err := expandEnvVars(c.RecordsURL)
	if err != nil {
		return fmt.Errorf("records_url: %w", err)
	}
	c.RecordsURL = expanded

	parsedURL, err := url.Parse(c.RecordsURL)
	if err != nil {
		return fmt.Errorf("invalid records_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("records_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("records_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("records_url must have a host")
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	if _, err := timefmt.ParseOffset(c.UTCOffset); err != nil {
		return fmt.Errorf("utc_offset: %w", err)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Location returns the display zone for UTCOffset.
func (c *Config) Location() *time.Location {
	loc, err := timefmt.ParseOffset(c.UTCOffset)
	if err != nil {
		// validated by Parse
		return timefmt.IST
	}
	return loc
}
