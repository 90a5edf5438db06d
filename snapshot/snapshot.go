// Package snapshot holds the most recently published aggregate, servable to
// read-only queries without touching round state.
package snapshot

import (
	"errors"
	"sync"
	"time"

	"github.com/absmach/rendezvous/params"
)

// ErrNoSnapshot is returned before the first round completes, so a worker
// can fall back to its own local initial model.
var ErrNoSnapshot = errors.New("no aggregate published yet")

type Snapshot struct {
	Params      params.Map `json:"params"`
	Version     uint64     `json:"version"`
	Round       uint64     `json:"round"`
	PublishedAt time.Time  `json:"published_at"`
}

// Store is single-writer: only the coordinator publishes, once per completed
// round. Reads are safe for any number of concurrent callers.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	set     bool
}

func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current snapshot and returns it with its version.
func (s *Store) Publish(m params.Map, round uint64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Snapshot{
		Params:      m,
		Version:     s.current.Version + 1,
		Round:       round,
		PublishedAt: time.Now(),
	}
	s.set = true

	return s.current
}

// Seed installs a baseline snapshot, used at boot to serve the last persisted
// aggregate. It does not bump the version.
func (s *Store) Seed(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = snap
	s.set = true
}

// Fetch returns a deep copy of the current snapshot, or ErrNoSnapshot if
// nothing has been published.
func (s *Store) Fetch() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return Snapshot{}, ErrNoSnapshot
	}
	snap := s.current
	snap.Params = snap.Params.Clone()

	return snap, nil
}

// Version returns the current snapshot version, zero when unset.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Version
}
