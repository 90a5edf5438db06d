package coordinator

import (
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/snapshot"
)

// round is the coordinator's core mutable state. Exactly one round is live
// at a time; it is replaced, never reset, so a waiter's reference keeps
// identifying the round it contributed to. The done channel is closed once,
// under the coordinator mutex, after outcome fields are set, so waiters
// observe a fully published result.
type round struct {
	seq     uint64
	updates map[string]params.Map
	order   []string
	done    chan struct{}

	// Outcome, valid once done is closed.
	snap snapshot.Snapshot
	err  error
}

func newRound(seq uint64) *round {
	return &round{
		seq:     seq,
		updates: make(map[string]params.Map),
		done:    make(chan struct{}),
	}
}

// collected returns the contributions in arrival order.
func (r *round) collected() []params.Map {
	out := make([]params.Map, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.updates[id])
	}

	return out
}

// add records a contribution. It reports false when the client already
// contributed to this round.
func (r *round) add(clientID string, update params.Map) bool {
	if _, ok := r.updates[clientID]; ok {
		return false
	}
	r.updates[clientID] = update
	r.order = append(r.order, clientID)

	return true
}

// retract removes a contribution, used when a waiter's context expires
// before quorum.
func (r *round) retract(clientID string) {
	if _, ok := r.updates[clientID]; !ok {
		return
	}
	delete(r.updates, clientID)
	for i, id := range r.order {
		if id == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}
}

// release clears the collected set so memory does not grow round over round.
func (r *round) release() {
	r.updates = nil
	r.order = nil
}
