package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/gatewatch/internal/render"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu          sync.RWMutex
	records     RecordSnapshot
	cameras     map[string]CameraStatus
	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     RecordSnapshot{Rows: []render.Row{}},
		cameras:     make(map[string]CameraStatus),
		subscribers: make(map[chan Event]struct{}),
	}
}

// ReplaceRecords swaps in a new table. The rows slice is copied.
func (m *MemoryStore) ReplaceRecords(rows []render.Row, at time.Time) {
	cp := make([]render.Row, len(rows))
	copy(cp, rows)

	m.mu.Lock()
	m.records = RecordSnapshot{
		Rows:      cp,
		UpdatedAt: at,
		Version:   m.records.Version + 1,
	}
	snap := m.records.clone()
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventRecords, Records: &snap})
}

// Records returns a copy of the current snapshot.
func (m *MemoryStore) Records() RecordSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records.clone()
}

// SetCamera stores status keyed by its Camera name.
func (m *MemoryStore) SetCamera(status CameraStatus) {
	m.mu.Lock()
	m.cameras[status.Camera] = status
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventCamera, Camera: &status})
}

// Cameras returns a snapshot of the camera states ordered by name.
func (m *MemoryStore) Cameras() []CameraStatus {
	m.mu.RLock()
	out := make([]CameraStatus, 0, len(m.cameras))
	for _, c := range m.cameras {
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Camera < out[j].Camera })
	return out
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the message
		}
	}
}

func (s RecordSnapshot) clone() RecordSnapshot {
	rows := make([]render.Row, len(s.Rows))
	copy(rows, s.Rows)
	s.Rows = rows
	return s
}
