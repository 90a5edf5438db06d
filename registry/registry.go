// Package registry issues opaque client identities and tracks per-client
// liveness for the coordinator.
package registry

import (
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/google/uuid"

	"github.com/absmach/rendezvous/pkg/errors"
)

// Status of a registered client. Sessions are marked DEAD by the liveness
// sweep but only removed by an explicit deregistration.
type Status string

const (
	StatusAlive Status = "ALIVE"
	StatusDead  Status = "DEAD"
)

// DefStalenessThreshold is the idle duration after which a session is
// reported DEAD.
const DefStalenessThreshold = 300 * time.Second

type ClientSession struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Ordinal    uint64    `json:"ordinal"`
	Status     Status    `json:"status"`
	LastActive time.Time `json:"last_active"`
}

type ClientPage struct {
	Offset  uint64          `json:"offset"`
	Limit   uint64          `json:"limit"`
	Total   uint64          `json:"total"`
	Clients []ClientSession `json:"clients"`
}

// Registry owns all client sessions. Every method is safe for concurrent
// use; registration, sweep and count share one critical section so a size
// query can never observe a half-swept state.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*ClientSession
	order     []string
	joined    uint64
	staleness time.Duration
	now       func() time.Time
	names     namegenerator.NameGenerator
}

type Option func(*Registry)

// WithStaleness overrides the default staleness threshold.
func WithStaleness(d time.Duration) Option {
	return func(r *Registry) {
		r.staleness = d
	}
}

// WithClock injects the time source, used by tests to advance time past the
// staleness threshold.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sessions:  make(map[string]*ClientSession),
		staleness: DefStalenessThreshold,
		now:       time.Now,
		names:     namegenerator.NewGenerator(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register creates a new ALIVE session with a token unique among the
// currently registered ones. Collisions are vanishingly rare but checked,
// not assumed absent.
func (r *Registry) Register() (ClientSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	for {
		if _, ok := r.sessions[id]; !ok {
			break
		}
		id = uuid.NewString()
	}

	r.joined++
	s := &ClientSession{
		ID:         id,
		Name:       r.names.Generate(),
		Ordinal:    r.joined,
		Status:     StatusAlive,
		LastActive: r.now(),
	}
	r.sessions[id] = s
	r.order = append(r.order, id)

	return *s, nil
}

// Heartbeat bumps the session's last-active timestamp. A DEAD session that
// heartbeats is ALIVE again; staleness is reporting-only.
func (r *Registry) Heartbeat(id string) error {
	if id == "" {
		return errors.ErrEmptyClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return errors.ErrUnknownClient
	}
	s.LastActive = r.now()
	s.Status = StatusAlive

	return nil
}

// CountAlive sweeps all sessions, marking any idle longer than the staleness
// threshold as DEAD, then returns the number of ALIVE sessions. Sweep and
// count happen under the same lock.
func (r *Registry) CountAlive() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var alive uint64
	for _, s := range r.sessions {
		if now.Sub(s.LastActive) > r.staleness {
			s.Status = StatusDead
		}
		if s.Status == StatusAlive {
			alive++
		}
	}

	return alive
}

// Deregister removes the session, ALIVE or DEAD.
func (r *Registry) Deregister(id string) error {
	if id == "" {
		return errors.ErrEmptyClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return errors.ErrUnknownClient
	}
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}

// List returns sessions in join order.
func (r *Registry) List(offset, limit uint64) (ClientPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := uint64(len(r.order))
	page := ClientPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}
	if offset >= total {
		return page, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}
	page.Clients = make([]ClientSession, 0, end-offset)
	for _, id := range r.order[offset:end] {
		page.Clients = append(page.Clients, *r.sessions[id])
	}

	return page, nil
}
