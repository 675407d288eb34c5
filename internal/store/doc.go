// Package store provides storage and pub/sub for the dashboard state.
//
// This package is internal to GateWatch and holds the current records table
// and the camera indicator states in memory. It implements a
// publish-subscribe pattern for real-time updates to connected dashboard
// clients.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [RecordSnapshot]: The rendered table from the last successful poll
//   - [CameraStatus]: The state of one camera indicator
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the system).
package store
