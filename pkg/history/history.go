package history

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/itohio/airmon/pkg/gas"
)

// DefaultCapacity is the number of ticks kept in the rolling window.
const DefaultCapacity = 50

// ErrPrecondition marks a programming error by the caller. The store is left untouched.
var ErrPrecondition = errors.New("history precondition violated")

// Snapshot is an immutable copy of the rolling window.
// Samples[i] and Gases[s][i] belong to the same acquisition tick.
// Index 0 is the oldest entry, the last index is the newest.
type Snapshot struct {
	Samples []int
	Gases   [gas.Count][]float64
}

// Len returns the number of ticks in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Samples)
}

// Series returns the ppm series of one species.
func (s Snapshot) Series(g gas.Species) []float64 {
	return s.Gases[g]
}

// Summary computes per-species statistics over the snapshot.
func (s Snapshot) Summary() [gas.Count]Stats {
	var out [gas.Count]Stats
	for _, g := range gas.All() {
		series := s.Gases[g]
		if len(series) == 0 {
			continue
		}
		st := Stats{
			Latest: series[len(series)-1],
			Max:    series[0],
			Min:    series[0],
		}
		var sum float64
		for _, v := range series {
			if v > st.Max {
				st.Max = v
			}
			if v < st.Min {
				st.Min = v
			}
			sum += v
		}
		st.Avg = sum / float64(len(series))

		st.Latest = round2(st.Latest)
		st.Max = round2(st.Max)
		st.Min = round2(st.Min)
		st.Avg = round2(st.Avg)
		out[g] = st
	}
	return out
}

// Stats summarises one species over the rolling window.
type Stats struct {
	Latest float64 `json:"latest"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Avg    float64 `json:"avg"`
}

// Store keeps fixed-capacity ring buffers of sample indices and per-gas ppm
// values that advance in lock-step. Every ring always holds exactly
// Capacity() elements; it starts zero-filled and evicts the oldest element on
// each update.
//
// The acquisition loop is the only writer. Readers get copies, so they may run
// on any goroutine.
type Store struct {
	mu sync.RWMutex

	capacity int
	head     int // index of the oldest element in every ring
	last     int // last sample index stored

	samples []int
	gases   [gas.Count][]float64

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// New creates a store with the given capacity (DefaultCapacity if <= 0).
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &Store{
		capacity: capacity,
		samples:  make([]int, capacity),
	}
	for i := range s.gases {
		s.gases[i] = make([]float64, capacity)
	}
	return s
}

// Capacity returns the fixed ring size.
func (s *Store) Capacity() int {
	return s.capacity
}

// Update appends one tick to every ring, evicting the oldest entry, and
// returns a snapshot of the new state.
// Sample indices must strictly increase; otherwise ErrPrecondition is returned
// and no ring is modified.
func (s *Store) Update(sample int, r gas.Reading) (Snapshot, error) {
	s.mu.Lock()
	if sample <= s.last {
		last := s.last
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: sample index %d not after %d", ErrPrecondition, sample, last)
	}

	// The oldest slot becomes the newest one.
	s.samples[s.head] = sample
	for g := range s.gases {
		s.gases[g][s.head] = r[g]
	}
	s.head = (s.head + 1) % s.capacity
	s.last = sample

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyCallbacks(snap)
	return snap, nil
}

// Latest returns a snapshot reflecting the most recent committed tick.
func (s *Store) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// LastSample returns the most recent sample index, or 0 before the first update.
func (s *Store) LastSample() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Summary returns latest/max/min/avg per species over the whole window,
// rounded to 2 decimals. Zero-filled slots count as values.
func (s *Store) Summary() [gas.Count]Stats {
	return s.Latest().Summary()
}

// OnUpdate registers a callback invoked with a fresh snapshot after every update.
// Callbacks run on the writer's goroutine without any store lock held.
func (s *Store) OnUpdate(callback func(Snapshot)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// snapshotLocked copies the rings in chronological order. Caller holds mu.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Samples: make([]int, s.capacity)}
	n := copy(snap.Samples, s.samples[s.head:])
	copy(snap.Samples[n:], s.samples[:s.head])

	for g := range s.gases {
		series := make([]float64, s.capacity)
		n := copy(series, s.gases[g][s.head:])
		copy(series[n:], s.gases[g][:s.head])
		snap.Gases[g] = series
	}
	return snap
}

func (s *Store) notifyCallbacks(snap Snapshot) {
	s.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
