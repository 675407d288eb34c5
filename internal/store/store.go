package store

import (
	"time"

	"github.com/jpalmerr/gatewatch/internal/render"
)

// RecordSnapshot is the records table as of the last successful poll.
type RecordSnapshot struct {
	// Rows are the rendered rows in upstream order.
	Rows []render.Row `json:"rows"`

	// UpdatedAt is when the snapshot was taken. Zero before the first
	// successful poll.
	UpdatedAt time.Time `json:"updated_at"`

	// Version increases by one with every replacement.
	Version uint64 `json:"version"`
}

// CameraStatus is the state of one camera indicator.
type CameraStatus struct {
	// Camera is "entry" or "exit".
	Camera string `json:"camera"`

	// ElementID is the DOM id of the indicator element.
	ElementID string `json:"element_id"`

	// State is "online" or "offline".
	State string `json:"state"`

	// Class is the CSS class list, e.g. "status online".
	Class string `json:"class"`

	// Label is the indicator text, e.g. "Entry Camera: Online".
	Label string `json:"label"`

	// ChangedAt is when the state was last drawn.
	ChangedAt time.Time `json:"changed_at"`
}

// EventType distinguishes the kinds of [Event].
type EventType string

const (
	EventRecords EventType = "records"
	EventCamera  EventType = "camera"
)

// Event is a single update delivered to subscribers. Exactly one of Records
// and Camera is set, matching Type.
type Event struct {
	Type    EventType       `json:"type"`
	Records *RecordSnapshot `json:"records,omitempty"`
	Camera  *CameraStatus   `json:"camera,omitempty"`
}

// Store defines the interface for storing and subscribing to dashboard state.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// ReplaceRecords discards the current table and stores rows in its
	// place, then notifies subscribers.
	ReplaceRecords(rows []render.Row, at time.Time)

	// Records returns the current table snapshot.
	Records() RecordSnapshot

	// SetCamera stores a camera indicator state and notifies subscribers.
	SetCamera(status CameraStatus)

	// Cameras returns all camera indicator states, ordered by camera name.
	Cameras() []CameraStatus

	// Subscribe returns a channel that receives updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
