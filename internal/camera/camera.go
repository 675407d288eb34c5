// Package camera drives the entry and exit camera indicators.
//
// The indicators are cosmetic. [Simulator] flips them at random and is not
// connected to any camera hardware.
package camera

import (
	"math/rand/v2"
	"sync"
	"time"
)

// State is the connectivity shown on an indicator.
type State string

const (
	Online  State = "online"
	Offline State = "offline"
)

// Camera names the two gate cameras.
type Camera string

const (
	Entry Camera = "entry"
	Exit  Camera = "exit"
)

// Cameras lists the indicators in display order.
var Cameras = []Camera{Entry, Exit}

var states = [...]State{Online, Offline}

// Indicator is the rendered state of one camera indicator.
type Indicator struct {
	Camera    Camera
	State     State
	ChangedAt time.Time
}

// Class returns the CSS class list for the indicator element.
func (i Indicator) Class() string {
	return "status " + string(i.State)
}

// Label returns the indicator text, e.g. "Entry Camera: Online".
func (i Indicator) Label() string {
	return i.Camera.Title() + " Camera: " + i.State.Title()
}

// ElementID returns the DOM id of the indicator, e.g. "entry-status".
func (c Camera) ElementID() string {
	return string(c) + "-status"
}

// Title returns the capitalised camera name.
func (c Camera) Title() string {
	switch c {
	case Entry:
		return "Entry"
	case Exit:
		return "Exit"
	default:
		return string(c)
	}
}

// Title returns the capitalised state.
func (s State) Title() string {
	if s == Online {
		return "Online"
	}
	return "Offline"
}

// Valid reports whether s is one of the two recognised states.
func (s State) Valid() bool {
	return s == Online || s == Offline
}

// Simulator picks random indicator states.
//
// Simulator is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator returns a Simulator drawing from rng. A nil rng uses a
// randomly seeded PCG source.
func NewSimulator(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{rng: rng, now: time.Now}
}

// Tick draws a fresh state for every camera, independently and uniformly.
func (s *Simulator) Tick() []Indicator {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]Indicator, 0, len(Cameras))
	for _, c := range Cameras {
		out = append(out, Indicator{
			Camera:    c,
			State:     states[s.rng.IntN(len(states))],
			ChangedAt: now,
		})
	}
	return out
}
