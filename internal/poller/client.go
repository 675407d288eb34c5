package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxResponseBodySize = 4 << 20 // 4MB

// connection pooling limits; a single upstream is polled so these stay small
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

var (
	// ErrUnexpectedStatus is returned when the records endpoint answers with
	// anything other than 200 OK.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrMalformedBody is returned when the response body is not a JSON
	// array of records.
	ErrMalformedBody = errors.New("malformed records body")

	// ErrBodyTooLarge is returned when the response exceeds the body limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Response holds the result of a records fetch made by [Client].
type Response struct {
	// Records are the decoded records in server order. nil on error.
	Records []Record
	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int
	// Latency is the total time taken for the request.
	Latency time.Duration
	// Error is non-nil if the fetch failed for any reason.
	Error error
}

// Client fetches records from the upstream endpoint.
//
// Client uses per-request timeouts via context rather than a global timeout.
// Response bodies are limited to 4MB.
type Client struct {
	resty     *resty.Client
	transport *http.Transport
}

// NewClient creates a records [Client].
func NewClient() *Client {
	transport := &http.Transport{
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	rc := resty.New().
		SetTransport(transport).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "gatewatch")

	return &Client{resty: rc, transport: transport}
}

// FetchRecords performs GET url and decodes the records array.
//
// FetchRecords always returns a Response; failures are captured in the Error
// field. A non-200 status or a body that is not a JSON array is a failure.
func (c *Client) FetchRecords(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}

	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != http.StatusOK {
		return Response{
			StatusCode: resp.StatusCode(),
			Latency:    time.Since(start),
			Error:      fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode()),
		}
	}

	// read one byte past the limit to detect oversized bodies
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBodySize+1))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode(),
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if len(data) > maxResponseBodySize {
		return Response{
			StatusCode: resp.StatusCode(),
			Latency:    time.Since(start),
			Error:      ErrBodyTooLarge,
		}
	}

	records, err := decodeRecords(data)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode(),
			Latency:    time.Since(start),
			Error:      err,
		}
	}

	return Response{
		Records:    records,
		StatusCode: resp.StatusCode(),
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's pool.
//
// Safe to call multiple times and on a nil Client. The client remains usable
// afterwards.
func (c *Client) Close() {
	if c == nil || c.transport == nil {
		return
	}
	c.transport.CloseIdleConnections()
}
