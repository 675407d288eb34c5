package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jpalmerr/gatewatch/internal/metrics"
	"github.com/jpalmerr/gatewatch/internal/render"
	"github.com/jpalmerr/gatewatch/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "GateWatch"

	dashboardPath = "assets/index.html"
)

// Server handles HTTP requests for the GateWatch dashboard and API.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the records table and camera states
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "GateWatch" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/records", metrics.Instrument("records", http.HandlerFunc(s.handleRecords)))
	mux.Handle("/api/cameras", metrics.Instrument("cameras", http.HandlerFunc(s.handleCameras)))
	mux.Handle("/fragments/records", metrics.Instrument("fragment", http.HandlerFunc(s.handleRecordsFragment)))
	mux.Handle("/api/sse", metrics.Instrument("sse", http.HandlerFunc(s.handleSSE)))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)

	if s.assets != nil {
		mux.Handle("/", metrics.Instrument("dashboard", http.HandlerFunc(s.handleDashboard)))
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. The server
// runs until ctx is cancelled, then shuts down gracefully with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context
		// so SSE handlers end on shutdown.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// dashboardData is the template data for the dashboard page.
type dashboardData struct {
	Title     string
	TableBody template.HTML
	Cameras   map[string]*store.CameraStatus
	UpdatedAt string
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, dashboardPath)
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	tmpl, err := template.New("dashboard").Parse(string(content))
	if err != nil {
		s.logger.Error("failed to parse dashboard template", "error", err)
		http.Error(w, "Dashboard template invalid", http.StatusInternalServerError)
		return
	}

	snap := s.store.Records()
	body, err := tableBody(snap.Rows)
	if err != nil {
		s.logger.Error("failed to render records table", "error", err)
		http.Error(w, "Failed to render records", http.StatusInternalServerError)
		return
	}

	cameras := make(map[string]*store.CameraStatus)
	for _, c := range s.store.Cameras() {
		c := c
		cameras[c.Camera] = &c
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}

	data := dashboardData{
		Title:     title,
		TableBody: body,
		Cameras:   cameras,
	}
	if !snap.UpdatedAt.IsZero() {
		data.UpdatedAt = snap.UpdatedAt.Format(time.RFC3339)
	}

	// render into a buffer so a template error can still produce a 500
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleRecords returns the current records table as JSON.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.store.Records())
}

// handleCameras returns the camera indicator states as JSON.
func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.store.Cameras())
}

// handleRecordsFragment returns the <tr> rows for the records table body.
func (s *Server) handleRecordsFragment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteTableBody(&buf, s.store.Records().Rows); err != nil {
		s.logger.Error("failed to render records fragment", "error", err)
		http.Error(w, "Failed to render records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// recordsPayload is the SSE data for a records event. HTML carries the
// pre-rendered table body so the page can swap it in directly.
type recordsPayload struct {
	store.RecordSnapshot
	HTML string `json:"html"`
}

// handleSSE streams dashboard updates via Server-Sent Events.
//
// The current table and camera states are sent first, then every store event.
// Writes use deadlines so a slow or vanished client cannot pin the handler.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(event string, data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before reading the initial state so no update is missed
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	initial := make([]store.Event, 0, 3)
	snap := s.store.Records()
	initial = append(initial, store.Event{Type: store.EventRecords, Records: &snap})
	for _, c := range s.store.Cameras() {
		c := c
		initial = append(initial, store.Event{Type: store.EventCamera, Camera: &c})
	}

	for _, ev := range initial {
		data, err := encodeEvent(ev)
		if err != nil {
			s.logger.Error("failed to encode sse event", "error", err)
			continue
		}
		if err := writeAndFlush(string(ev.Type), data); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := encodeEvent(ev)
			if err != nil {
				s.logger.Error("failed to encode sse event", "error", err)
				continue
			}
			if err := writeAndFlush(string(ev.Type), data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

// encodeEvent produces the SSE data line for ev.
func encodeEvent(ev store.Event) ([]byte, error) {
	switch ev.Type {
	case store.EventRecords:
		if ev.Records == nil {
			return nil, errors.New("records event without snapshot")
		}
		body, err := tableBody(ev.Records.Rows)
		if err != nil {
			return nil, err
		}
		return json.Marshal(recordsPayload{RecordSnapshot: *ev.Records, HTML: string(body)})
	case store.EventCamera:
		if ev.Camera == nil {
			return nil, errors.New("camera event without status")
		}
		return json.Marshal(ev.Camera)
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// tableBody renders rows for embedding as trusted HTML. Cell values are
// escaped by the row template.
func tableBody(rows []render.Row) (template.HTML, error) {
	var buf bytes.Buffer
	if err := render.WriteTableBody(&buf, rows); err != nil {
		return "", err
	}
	//nolint:gosec // output of an html/template, already escaped
	return template.HTML(buf.String()), nil
}
