package gatewatch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordsUpstream returns a server answering /get_records with body.
func recordsUpstream(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func mustSource(t *testing.T, url string, opts ...SourceOption) Source {
	t.Helper()
	src, err := NewSource(url, opts...)
	require.NoError(t, err)
	return src
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	gw, err := New(
		WithSource(mustSource(t, ts.URL+"/get_records")),
		WithPort(19001),
		WithPollingInterval(100*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- gw.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-done:
		require.FailNow(t, "Start() returned early", "error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	gw, err := New(
		WithSource(mustSource(t, ts.URL)),
		WithPort(19002),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- gw.Start(ctx)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "Start() did not return with already-cancelled context")
	}
}

// TestStart_ServesDashboard polls a real upstream and checks that the table
// reaches the served page and the JSON API.
func TestStart_ServesDashboard(t *testing.T) {
	ts := recordsUpstream(t, `[
		{"vehicle_number":"MH01AB1234","camera":"entry","entry_time":"2024-01-15T10:30:00Z","exit_time":"N/A","employee":"Yes"},
		{"vehicle_number":"KA05XY0001","camera":null,"entry_time":"garbage","employee":"No"}
	]`)

	const port = 19003
	gw, err := New(
		WithSource(mustSource(t, ts.URL+"/get_records")),
		WithPort(port),
		WithTitle("Main Gate"),
		WithPollingInterval(50*time.Millisecond),
		WithStatusInterval(50*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gw.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	base := fmt.Sprintf("http://localhost:%d", port)

	var page string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/")
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			page = string(b)
			if strings.Contains(page, "MH01AB1234") && strings.Contains(page, "entry-status\" class=\"status o") {
				break
			}
		}
		time.Sleep(25 * time.Millisecond)
	}

	for _, want := range []string{
		"<title>Main Gate</title>",
		"<td>15-01-2024, 16:00:00</td>",
		"<td>garbage</td>",
		`<td class="employee-yes">Yes</td>`,
		`<td class="employee-no">No</td>`,
	} {
		assert.Contains(t, page, want)
	}
}

// TestStart_MultipleSequentialRuns verifies that a new GateWatch can be
// started after the previous one shuts down.
func TestStart_MultipleSequentialRuns(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	for i := 0; i < 3; i++ {
		gw, err := New(
			WithSource(mustSource(t, ts.URL)),
			WithPort(19004+i),
			WithPollingInterval(50*time.Millisecond),
		)
		require.NoError(t, err, "iteration %d", i)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- gw.Start(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err, "iteration %d", i)
		case <-time.After(5 * time.Second):
			require.FailNow(t, "Start() did not return", "iteration %d", i)
		}
	}
}

// TestStart_PortInUse verifies Start reports a bind failure.
func TestStart_PortInUse(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	ln, err := net.Listen("tcp", ":19012")
	if err != nil {
		t.Skipf("could not reserve port: %v", err)
	}
	defer func() { _ = ln.Close() }()

	gw, err := New(WithSource(mustSource(t, ts.URL)), WithPort(19012))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = gw.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start HTTP server")
}

// TestStart_ConcurrentAccess verifies accessors are safe while running.
func TestStart_ConcurrentAccess(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	gw, err := New(
		WithSource(mustSource(t, ts.URL)),
		WithPort(19010),
		WithPollingInterval(50*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = gw.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gw.Source()
			_ = gw.Port()
			_ = gw.PollingInterval()
			_ = gw.StatusInterval()
		}()
	}

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "goroutines did not complete")
	}
}

// TestStart_WithTimeoutContext verifies Start respects deadline contexts.
func TestStart_WithTimeoutContext(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	gw, err := New(
		WithSource(mustSource(t, ts.URL)),
		WithPort(19011),
		WithPollingInterval(50*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = gw.Start(ctx)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 500*time.Millisecond)
}
