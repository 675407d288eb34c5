// Package metrics exposes GateWatch's Prometheus collectors.
//
//nolint:gochecknoglobals
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatewatch"

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "The total number of scheduled job runs by outcome",
	}, []string{"job", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "The duration of scheduled job runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	recordRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "record_rows",
		Help:      "The number of rows in the records table",
	})

	lastRecordsUpdate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records_last_update_timestamp_seconds",
		Help:      "Unix time of the last successful records poll",
	})

	cameraOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "camera_online",
		Help:      "Whether the camera indicator shows online (1) or offline (0)",
	}, []string{"camera"})

	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api", "method", "code"})
)

// Outcome labels for job runs.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// ObserveJob records one scheduler tick.
func ObserveJob(job, outcome string, d time.Duration) {
	jobRuns.WithLabelValues(job, outcome).Inc()
	if outcome != OutcomeSkipped {
		jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

// SetRecords records the size and time of a successful table replacement.
func SetRecords(rows int, at time.Time) {
	recordRows.Set(float64(rows))
	lastRecordsUpdate.Set(float64(at.Unix()))
}

// SetCamera records an indicator state.
func SetCamera(camera string, online bool) {
	v := 0.0
	if online {
		v = 1
	}
	cameraOnline.WithLabelValues(camera).Set(v)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Instrument wraps next, observing request latency under the api label.
func Instrument(api string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsDuration.With(prometheus.Labels{
			"api":    api,
			"method": r.Method,
			"code":   strconv.Itoa(rec.code),
		}).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response code while keeping Flush and
// deadline control reachable via Unwrap.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
