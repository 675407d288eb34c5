// Package poller fetches vehicle records and runs GateWatch's periodic jobs.
//
// This package is internal to GateWatch. It replaces free-running timers with
// an explicit scheduler that supports cancellation and skips a job's tick
// while the previous run of that job is still in flight.
//
// The main components are:
//
//   - [Client]: HTTP client for the upstream records endpoint
//   - [Record]: one vehicle entry/exit record as served upstream
//   - [Scheduler]: runs named [Job] values at their own intervals
//   - [RunResult]: outcome of a single job run (or skipped tick)
//
// Users of the gatewatch library should not need to interact with this
// package directly. Configuration is done through the main gatewatch package.
package poller
