// Package coordinator implements the round-barrier aggregation engine: it
// collects one parameter map per client per round, blocks every submitter
// until the round's quorum is met, aggregates exactly once and releases all
// blocked submitters with the same published snapshot version.
package coordinator

import (
	"context"
	"errors"

	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

var (
	// ErrDuplicateSubmission rejects a second contribution from the same
	// client while its round is still open. The caller should retry next
	// round.
	ErrDuplicateSubmission = errors.New("client already submitted in the open round")

	// ErrQuorumTimeout is returned when a submitter's context expires while
	// waiting for quorum. The contribution is retracted so the round cannot
	// be left waiting on a departed submitter.
	ErrQuorumTimeout = errors.New("timed out waiting for round quorum")

	// ErrAggregationPrecondition marks an invariant violation inside the
	// round (empty or key-mismatched collected set). It is fatal to the
	// round: the collected set is discarded and clients must resubmit.
	ErrAggregationPrecondition = errors.New("aggregation precondition violated")

	errEmptyUpdate = errors.New("empty parameter map")
)

// SubmitResult identifies the published aggregate a submission contributed
// to. Clients re-fetch the snapshot; no payload is carried back.
type SubmitResult struct {
	Round   uint64 `json:"round"`
	Version uint64 `json:"version"`
}

// RoundStatus describes the live round.
type RoundStatus struct {
	Round     uint64 `json:"round"`
	Collected int    `json:"collected"`
	Quorum    int    `json:"quorum"`
}

type Service interface {
	// Register issues a unique client identity with a 1-based join ordinal.
	Register(ctx context.Context) (registry.ClientSession, error)

	// ListClients returns registered sessions in join order.
	ListClients(ctx context.Context, offset, limit uint64) (registry.ClientPage, error)

	// Heartbeat refreshes a client's liveness timestamp.
	Heartbeat(ctx context.Context, clientID string) error

	// QuerySize sweeps liveness and returns the number of ALIVE clients.
	QuerySize(ctx context.Context) (uint64, error)

	// Deregister removes a client session.
	Deregister(ctx context.Context, clientID string) error

	// Submit contributes one parameter map to the open round and blocks
	// until that round's aggregate is published, or until ctx expires.
	Submit(ctx context.Context, clientID string, update params.Map) (SubmitResult, error)

	// FetchSnapshot returns the most recently published aggregate without
	// blocking on round activity.
	FetchSnapshot(ctx context.Context) (snapshot.Snapshot, error)

	// RoundStatus reports the open round's progress.
	RoundStatus(ctx context.Context) (RoundStatus, error)
}
