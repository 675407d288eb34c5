// Package mockgate simulates a vehicle gate's records endpoint for demos.
package mockgate

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

const (
	// maxRecords is how many records /get_records returns, newest first.
	maxRecords = 20
	// maxStored bounds the movement history; the oldest are dropped first.
	maxStored = 5 * maxRecords
	// maxCatchUp bounds the movements generated for one request after an
	// idle period.
	maxCatchUp = maxRecords
)

// wireLayout is the naive ISO-8601 form a datetime read back from the
// database takes, in UTC with microseconds.
const wireLayout = "2006-01-02T15:04:05.000000"

// Employees are the plates registered as employee vehicles.
var Employees = []string{"MH01AB1234", "DL02CD5678", "KA03EF9012"}

var visitors = []string{
	"MH12GH3456", "GJ05JK7890", "TN09LM2345", "UP16NP6789",
	"RJ14QR0123", "WB20ST4567", "HR26UV8901", "AP28WX2345",
}

// Record is the wire form served on /get_records.
type Record struct {
	VehicleNumber string `json:"vehicle_number"`
	Camera        string `json:"camera"`
	EntryTime     string `json:"entry_time"`
	ExitTime      string `json:"exit_time"`
	Employee      string `json:"employee"`
}

// movement is one stored gate record. camera and insertedAt are fixed when
// the record is created; later sightings only fill in entry or exit.
type movement struct {
	plate      string
	camera     string
	entry      time.Time
	exit       time.Time
	employee   bool
	insertedAt time.Time
}

// Gate generates vehicle movements on demand. A new movement is produced
// every few seconds of wall time, checked lazily on each request.
type Gate struct {
	mu        sync.Mutex
	rng       *rand.Rand
	now       func() time.Time
	movements []movement // in insertion order
	nextAt    time.Time
	employees map[string]bool
}

// New returns a Gate seeded with a handful of movements. A nil rng uses a
// randomly seeded source.
func New(rng *rand.Rand) *Gate {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Gate{
		rng:       rng,
		now:       time.Now,
		employees: make(map[string]bool, len(Employees)),
	}
	for _, p := range Employees {
		g.employees[p] = true
	}

	start := g.now().Add(-30 * time.Minute)
	for i := 0; i < 8; i++ {
		g.step(start.Add(time.Duration(i) * 3 * time.Minute))
	}
	g.nextAt = g.now()
	return g
}

// step simulates one camera sighting at t.
//
// An exit closes the latest open entry of a vehicle inside. An entry fills
// in a pending exit-only record for the same plate if there is one,
// otherwise it inserts a new record. Occasionally an exit is seen for a
// vehicle with no entry and is inserted on its own.
func (g *Gate) step(t time.Time) {
	var inside []int
	for i, m := range g.movements {
		if !m.entry.IsZero() && m.exit.IsZero() {
			inside = append(inside, i)
		}
	}

	switch {
	case len(inside) > 0 && g.rng.IntN(2) == 0:
		g.movements[inside[g.rng.IntN(len(inside))]].exit = t
	case g.rng.IntN(10) == 0:
		g.insert("exit", g.pickPlate(), t)
	default:
		plate := g.pickPlate()
		if i := g.pendingExit(plate); i >= 0 {
			g.movements[i].entry = t
			return
		}
		g.insert("entry", plate, t)
	}
}

func (g *Gate) insert(camera, plate string, t time.Time) {
	m := movement{plate: plate, camera: camera, employee: g.employees[plate], insertedAt: t}
	if camera == "entry" {
		m.entry = t
	} else {
		m.exit = t
	}
	g.movements = append(g.movements, m)

	if n := len(g.movements) - maxStored; n > 0 {
		g.movements = append(g.movements[:0:0], g.movements[n:]...)
	}
}

// pendingExit returns the index of an exit-only record for plate, or -1.
func (g *Gate) pendingExit(plate string) int {
	for i, m := range g.movements {
		if m.plate == plate && m.entry.IsZero() && !m.exit.IsZero() {
			return i
		}
	}
	return -1
}

func (g *Gate) pickPlate() string {
	if g.rng.IntN(3) == 0 {
		return Employees[g.rng.IntN(len(Employees))]
	}
	return visitors[g.rng.IntN(len(visitors))]
}

// advance generates the movements due by now. After a long idle period only
// the last maxCatchUp are generated and the schedule restarts from now.
func (g *Gate) advance(now time.Time) {
	for steps := 0; !now.Before(g.nextAt); steps++ {
		if steps == maxCatchUp {
			g.nextAt = now.Add(g.gap())
			return
		}
		g.step(g.nextAt)
		g.nextAt = g.nextAt.Add(g.gap())
	}
}

func (g *Gate) gap() time.Duration {
	return time.Duration(3+g.rng.IntN(6)) * time.Second
}

// Records returns up to 20 records, most recently inserted first.
func (g *Gate) Records() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.advance(g.now())

	n := len(g.movements)
	if n > maxRecords {
		n = maxRecords
	}
	out := make([]Record, 0, n)
	for i := len(g.movements) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, toRecord(g.movements[i]))
	}
	return out
}

func toRecord(m movement) Record {
	r := Record{
		VehicleNumber: m.plate,
		Camera:        m.camera,
		EntryTime:     "N/A",
		ExitTime:      "N/A",
		Employee:      "No",
	}
	if !m.entry.IsZero() {
		r.EntryTime = m.entry.UTC().Format(wireLayout)
	}
	if !m.exit.IsZero() {
		r.ExitTime = m.exit.UTC().Format(wireLayout)
	}
	if m.employee {
		r.Employee = "Yes"
	}
	return r
}

// Handler serves GET /get_records.
func (g *Gate) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(g.Records()); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})
	return mux
}
