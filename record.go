package gatewatch

import "time"

// Record is one vehicle movement as returned by the records endpoint.
//
// Every field may be empty when the upstream omitted it or sent null.
type Record struct {
	VehicleNumber string
	Camera        string
	EntryTime     string
	ExitTime      string
	Employee      string
}

// RecordsResult holds the outcome of one records poll.
type RecordsResult struct {
	// URL is the records endpoint that was polled.
	URL string

	// Records are the decoded records in upstream order. Empty on error.
	Records []Record

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Latency is the time taken to complete the request.
	Latency time.Duration

	// FetchedAt is when the poll started.
	FetchedAt time.Time

	// Error is non-nil when the poll failed. The dashboard table is left
	// unchanged in that case.
	Error error
}

// CameraState is the state shown on a camera indicator.
type CameraState string

const (
	CameraOnline  CameraState = "online"
	CameraOffline CameraState = "offline"
)

// String returns the string representation of the state.
func (s CameraState) String() string {
	return string(s)
}

// CameraStatus is one simulated camera indicator update.
type CameraStatus struct {
	// Camera is "entry" or "exit".
	Camera string

	// State is the freshly drawn state.
	State CameraState

	// Label is the indicator text, e.g. "Entry Camera: Online".
	Label string

	// ChangedAt is when the state was drawn.
	ChangedAt time.Time
}
