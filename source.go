package gatewatch

import (
	"errors"
	"net/url"
	"time"
)

const defaultSourceTimeout = 10 * time.Second

// Source is the upstream records endpoint.
//
// Source is immutable after creation via [NewSource]. Getters return copies
// of mutable data.
type Source struct {
	url     string
	headers map[string]string
	timeout time.Duration
}

// URL returns the records endpoint URL.
func (s Source) URL() string {
	return s.url
}

// Headers returns a copy of the headers sent with every poll.
// Returns nil if no custom headers are set.
func (s Source) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the per-request timeout.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (s Source) Timeout() time.Duration {
	return s.timeout
}

// NewSource creates a [Source] for the records endpoint at rawURL.
//
// rawURL must be an absolute http:// or https:// URL, conventionally ending
// in /get_records.
//
// Example:
//
//	src, err := gatewatch.NewSource("https://gate.example.com/get_records",
//	    gatewatch.WithTimeout(5 * time.Second),
//	)
func NewSource(rawURL string, opts ...SourceOption) (Source, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Source{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Source{}, errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return Source{}, errors.New("URL must have a host")
	}

	cfg := &sourceConfig{
		headers: make(map[string]string),
		timeout: defaultSourceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Source{}, err
		}
	}

	return Source{
		url:     rawURL,
		headers: cfg.headers,
		timeout: cfg.timeout,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
