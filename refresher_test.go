package gatewatch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/gatewatch/internal/camera"
	"github.com/jpalmerr/gatewatch/internal/poller"
	"github.com/jpalmerr/gatewatch/internal/render"
	"github.com/jpalmerr/gatewatch/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRefresher builds a refresher against url with a fresh store.
func newTestRefresher(t *testing.T, url string, opts ...Option) (*refresher, *store.MemoryStore) {
	t.Helper()

	opts = append([]Option{WithSource(mustSource(t, url)), WithLogger(discardLogger())}, opts...)
	gw, err := New(opts...)
	require.NoError(t, err)

	client := poller.NewClient()
	t.Cleanup(client.Close)

	st := store.NewMemoryStore()
	sim := camera.NewSimulator(rand.New(rand.NewPCG(1, 2)))
	return gw.newRefresher(st, client, sim), st
}

const twoRecords = `[
	{"vehicle_number":"MH01AB1234","camera":"entry","entry_time":"2024-01-15T10:30:00Z","exit_time":"N/A","employee":"Yes"},
	{"vehicle_number":"KA05XY0001","camera":"exit","entry_time":null,"exit_time":"2024-01-15T11:00:00Z","employee":"No"}
]`

func TestPollRecords_ReplacesTable(t *testing.T) {
	ts := recordsUpstream(t, twoRecords)
	r, st := newTestRefresher(t, ts.URL)

	require.NoError(t, r.pollRecords(context.Background()))

	snap := st.Records()
	require.Len(t, snap.Rows, 2)

	assert.Equal(t, render.Row{
		VehicleNumber: "MH01AB1234",
		Camera:        "entry",
		EntryTime:     "15-01-2024, 16:00:00",
		ExitTime:      "N/A",
		Employee:      "Yes",
		EmployeeClass: render.ClassEmployeeYes,
	}, snap.Rows[0])
	assert.Equal(t, "N/A", snap.Rows[1].EntryTime)
	assert.Equal(t, "15-01-2024, 16:30:00", snap.Rows[1].ExitTime)
	assert.Equal(t, render.ClassEmployeeNo, snap.Rows[1].EmployeeClass)
}

func TestPollRecords_EmptyArrayClearsTable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, twoRecords)
			return
		}
		_, _ = io.WriteString(w, "[]")
	}))
	defer ts.Close()

	r, st := newTestRefresher(t, ts.URL)

	require.NoError(t, r.pollRecords(context.Background()))
	require.NoError(t, r.pollRecords(context.Background()))

	assert.Empty(t, st.Records().Rows)
}

// TestPollRecords_FailureKeepsPreviousTable verifies that failed polls leave
// the last good table visible.
func TestPollRecords_FailureKeepsPreviousTable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			_, _ = io.WriteString(w, twoRecords)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		case 3:
			_, _ = io.WriteString(w, `{"error":"not an array"}`)
		default:
			_, _ = io.WriteString(w, `[{"vehicle_number":`)
		}
	}))
	defer ts.Close()

	r, st := newTestRefresher(t, ts.URL)

	require.NoError(t, r.pollRecords(context.Background()))
	before := st.Records()

	for i := 0; i < 3; i++ {
		assert.Error(t, r.pollRecords(context.Background()), "poll %d should fail", i+2)
	}

	after := st.Records()
	assert.Equal(t, before.Version, after.Version, "version should be unchanged")
	assert.Equal(t, before.Rows, after.Rows, "table changed after failures")
}

// TestPollRecords_NetworkErrorKeepsTableAndLogs drives a refused connection
// through the scheduler and checks the table survives and the failure is
// logged at WARN.
func TestPollRecords_NetworkErrorKeepsTableAndLogs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, twoRecords)
	}))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	gw, err := New(WithSource(mustSource(t, ts.URL)), WithLogger(logger))
	require.NoError(t, err)

	client := poller.NewClient()
	defer client.Close()
	st := store.NewMemoryStore()
	r := gw.newRefresher(st, client, camera.NewSimulator(nil))

	require.NoError(t, r.pollRecords(context.Background()))
	before := st.Records()
	require.Len(t, before.Rows, 2)

	ts.Close()

	s, err := poller.NewScheduler(r.jobs(time.Hour, time.Hour)[:1], 1, logger)
	require.NoError(t, err)
	s.Start(context.Background())

	var result poller.RunResult
	select {
	case result = <-s.Results():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for the records run")
	}
	s.Stop()

	gw.observe(result)

	require.Error(t, result.Error)
	assert.Equal(t, jobRecords, result.Job)

	after := st.Records()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Rows, after.Rows)

	logs := buf.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "job run failed")
	assert.Contains(t, logs, "job=records")
	assert.Contains(t, logs, "fetch records from "+ts.URL)
}

func TestPollRecords_ErrorWrapsCause(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	r, _ := newTestRefresher(t, ts.URL)

	err := r.pollRecords(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, poller.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), ts.URL, "error should name the URL")
}

func TestPollRecords_SendsHeaders(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, "[]")
	}))
	defer ts.Close()

	gw, err := New(WithSource(mustSource(t, ts.URL, WithHeaders("Authorization", "Bearer gate"))))
	require.NoError(t, err)
	client := poller.NewClient()
	defer client.Close()

	r := gw.newRefresher(store.NewMemoryStore(), client, camera.NewSimulator(nil))
	require.NoError(t, r.pollRecords(context.Background()))
	assert.Equal(t, "Bearer gate", got)
}

func TestRecordsCallback_ReceivesResult(t *testing.T) {
	ts := recordsUpstream(t, twoRecords)

	var result RecordsResult
	r, _ := newTestRefresher(t, ts.URL, WithRecordsCallback(func(rr RecordsResult) {
		result = rr
	}))

	require.NoError(t, r.pollRecords(context.Background()))

	assert.NoError(t, result.Error)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, ts.URL, result.URL)
	assert.False(t, result.FetchedAt.IsZero(), "FetchedAt should be set")
	require.Len(t, result.Records, 2)
	// callbacks see the raw wire values, not the display form
	assert.Equal(t, "2024-01-15T10:30:00Z", result.Records[0].EntryTime)
	assert.Empty(t, result.Records[1].EntryTime, "null entry_time should be empty")
}

func TestRecordsCallback_ReceivesError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	var result RecordsResult
	var called bool
	r, _ := newTestRefresher(t, ts.URL, WithRecordsCallback(func(rr RecordsResult) {
		called = true
		result = rr
	}))

	_ = r.pollRecords(context.Background())

	require.True(t, called, "callback should be invoked on failure")
	assert.Error(t, result.Error)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
	assert.Empty(t, result.Records)
}

func TestRecordsCallback_PanicRecovery(t *testing.T) {
	ts := recordsUpstream(t, twoRecords)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var secondCalled bool
	r, st := newTestRefresher(t, ts.URL,
		WithLogger(logger),
		WithRecordsCallback(func(RecordsResult) { panic("boom") }),
		WithRecordsCallback(func(RecordsResult) { secondCalled = true }),
	)

	require.NoError(t, r.pollRecords(context.Background()))

	assert.True(t, secondCalled, "callbacks after a panicking one should still run")
	assert.Len(t, st.Records().Rows, 2, "table should be updated before callbacks run")
	logs := buf.String()
	assert.Contains(t, logs, "callback panicked")
	assert.Contains(t, logs, "correlation_id=")
}

func TestRecordsCallback_ExecutionOrder(t *testing.T) {
	ts := recordsUpstream(t, "[]")

	var mu sync.Mutex
	var order []int
	record := func(n int) func(RecordsResult) {
		return func(RecordsResult) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	r, _ := newTestRefresher(t, ts.URL,
		WithRecordsCallback(record(1)),
		WithRecordsCallback(record(2)),
		WithRecordsCallback(record(3)),
	)
	_ = r.pollRecords(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTickCameras_UpdatesStore(t *testing.T) {
	r, st := newTestRefresher(t, "http://gate.local")

	var statuses []CameraStatus
	r.cameraCallbacks = append(r.cameraCallbacks, func(cs CameraStatus) {
		statuses = append(statuses, cs)
	})

	require.NoError(t, r.tickCameras(context.Background()))

	cams := st.Cameras()
	require.Len(t, cams, 2)
	for _, c := range cams {
		assert.Contains(t, []string{"online", "offline"}, c.State, "camera %s", c.Camera)
		assert.Equal(t, c.Camera+"-status", c.ElementID)
		assert.Equal(t, "status "+c.State, c.Class)
	}

	require.Len(t, statuses, 2)
	assert.Equal(t, "entry", statuses[0].Camera)
	assert.Equal(t, "exit", statuses[1].Camera)
}

func TestStart_CallbacksInvoked(t *testing.T) {
	ts := recordsUpstream(t, twoRecords)

	var records, cameras atomic.Int32
	gw, err := New(
		WithSource(mustSource(t, ts.URL)),
		WithPort(19200),
		WithLogger(discardLogger()),
		WithPollingInterval(50*time.Millisecond),
		WithStatusInterval(50*time.Millisecond),
		WithRecordsCallback(func(RecordsResult) { records.Add(1) }),
		WithCameraCallback(func(CameraStatus) { cameras.Add(1) }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = gw.Start(ctx)

	assert.GreaterOrEqual(t, records.Load(), int32(2))
	assert.GreaterOrEqual(t, cameras.Load(), int32(4))
}
