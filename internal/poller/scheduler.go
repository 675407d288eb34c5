package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Job is a named unit of periodic work.
type Job struct {
	// Name identifies the job in results and logs. Must be unique.
	Name string
	// Interval is the time between ticks. Must be positive.
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run is bounded only by
	// the scheduler's lifetime.
	Timeout time.Duration
	// Run performs the work. It must honour ctx cancellation.
	Run func(ctx context.Context) error
}

// RunResult holds the outcome of one tick of a job.
type RunResult struct {
	// Job is the name of the job.
	Job string
	// StartedAt is when the run began, or when the tick was skipped.
	StartedAt time.Time
	// Duration is how long the run took. Zero for skipped ticks.
	Duration time.Duration
	// Skipped is true when the tick fired while a previous run was in flight.
	Skipped bool
	// Error is the error returned by the run, if any.
	Error error
}

// Scheduler runs jobs periodically, each on its own ticker.
//
// Every job runs immediately on [Scheduler.Start] and then once per interval.
// A tick that fires while the job's previous run is still in flight is
// skipped, so runs of the same job never overlap. Different jobs run
// independently of one another, bounded by maxConcurrency.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	jobs    []Job
	results chan RunResult
	sem     chan struct{}
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler] for jobs.
//
// maxConcurrency caps how many job runs may execute at once; values below 1
// are treated as 1. Jobs with an empty name, a non-positive interval, a nil
// Run, or a duplicate name are rejected.
func NewScheduler(jobs []Job, maxConcurrency int, logger *slog.Logger) (*Scheduler, error) {
	seen := make(map[string]bool, len(jobs))
	for i, j := range jobs {
		switch {
		case j.Name == "":
			return nil, fmt.Errorf("jobs[%d]: name is required", i)
		case j.Interval <= 0:
			return nil, fmt.Errorf("job %q: interval must be positive", j.Name)
		case j.Run == nil:
			return nil, fmt.Errorf("job %q: run func is required", j.Name)
		case seen[j.Name]:
			return nil, fmt.Errorf("duplicate job name: %q", j.Name)
		}
		seen[j.Name] = true
	}

	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		jobs:    jobs,
		results: make(chan RunResult, 2*len(jobs)+1),
		sem:     make(chan struct{}, maxConcurrency),
		logger:  logger,
	}, nil
}

// Results returns a receive-only channel of [RunResult] values.
//
// The channel is closed once the scheduler has stopped and every in-flight
// run has finished. Consumers should read until it is closed.
func (s *Scheduler) Results() <-chan RunResult {
	return s.results
}

// Start begins running jobs in background goroutines.
//
// Start is non-blocking. If ctx is nil, context.Background() is used.
// Start is idempotent, and a no-op if Stop was called first.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race

	s.wg.Add(len(s.jobs))
	s.mu.Unlock()

	for _, j := range s.jobs {
		go s.loop(runCtx, j)
	}

	// close results once loops and in-flight runs are done, even if the
	// parent context is cancelled without Stop being called
	go func() {
		s.wg.Wait()
		s.closeOnce.Do(func() { close(s.results) })
	}()
}

// Stop cancels all jobs and waits for in-flight runs to return.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// loop drives a single job until ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()

	var inFlight atomic.Bool
	s.dispatch(ctx, j, &inFlight)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatch(ctx, j, &inFlight)
		}
	}
}

// dispatch starts a run of j unless one is already in flight.
func (s *Scheduler) dispatch(ctx context.Context, j Job, inFlight *atomic.Bool) {
	if !inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, previous run still in flight", "job", j.Name)
		s.emit(ctx, RunResult{Job: j.Name, StartedAt: time.Now(), Skipped: true})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer inFlight.Store(false)

		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		result := s.run(ctx, j)
		<-s.sem

		s.emit(ctx, result)
	}()
}

// run executes one run of j with its timeout applied.
func (s *Scheduler) run(ctx context.Context, j Job) RunResult {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.safeRun(ctx, j)
	return RunResult{
		Job:       j.Name,
		StartedAt: start,
		Duration:  time.Since(start),
		Error:     err,
	}
}

// safeRun calls the job with panic recovery.
// If the job panics, the full stack trace is logged with a correlation ID and
// an error containing the ID is returned.
func (s *Scheduler) safeRun(ctx context.Context, j Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()
			s.logger.Error("job panic",
				"job", j.Name,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)
			err = fmt.Errorf("job panic (correlation_id: %s)", correlationID)
		}
	}()
	return j.Run(ctx)
}

// emit delivers a result unless the scheduler is shutting down.
func (s *Scheduler) emit(ctx context.Context, r RunResult) {
	// results of runs cut short by shutdown are noise
	if r.Error != nil && errors.Is(r.Error, context.Canceled) && ctx.Err() != nil {
		return
	}
	select {
	case s.results <- r:
	case <-ctx.Done():
	}
}
