package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/absmach/rendezvous/aggregate"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/pkg/mqtt"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

const completeTopicSuffix = "/rounds/complete"

type service struct {
	clients    *registry.Registry
	aggregator aggregate.Aggregator
	snapshots  *snapshot.Store
	files      *snapshot.FileStore
	pubsub     mqtt.PubSub
	baseTopic  string
	quorum     int
	logger     *slog.Logger

	// mu guards cur. The quorum-completing Submit aggregates, publishes and
	// installs the next round while holding it, so waiters released by the
	// done channel always observe the final outcome.
	mu  sync.Mutex
	cur *round
}

// NewService wires the round barrier. files and pubsub may be nil, in which
// case snapshots are not persisted and completions are not announced.
func NewService(clients *registry.Registry, aggregator aggregate.Aggregator, snapshots *snapshot.Store, files *snapshot.FileStore, pubsub mqtt.PubSub, quorum int, baseTopic string, logger *slog.Logger) Service {
	if quorum < 1 {
		quorum = 1
	}

	return &service{
		clients:    clients,
		aggregator: aggregator,
		snapshots:  snapshots,
		files:      files,
		pubsub:     pubsub,
		baseTopic:  baseTopic,
		quorum:     quorum,
		logger:     logger,
		cur:        newRound(1),
	}
}

func (svc *service) Register(_ context.Context) (registry.ClientSession, error) {
	return svc.clients.Register()
}

func (svc *service) ListClients(_ context.Context, offset, limit uint64) (registry.ClientPage, error) {
	return svc.clients.List(offset, limit)
}

func (svc *service) Heartbeat(_ context.Context, clientID string) error {
	return svc.clients.Heartbeat(clientID)
}

func (svc *service) QuerySize(_ context.Context) (uint64, error) {
	return svc.clients.CountAlive(), nil
}

func (svc *service) Deregister(_ context.Context, clientID string) error {
	return svc.clients.Deregister(clientID)
}

func (svc *service) FetchSnapshot(_ context.Context) (snapshot.Snapshot, error) {
	return svc.snapshots.Fetch()
}

func (svc *service) RoundStatus(_ context.Context) (RoundStatus, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return RoundStatus{
		Round:     svc.cur.seq,
		Collected: len(svc.cur.updates),
		Quorum:    svc.quorum,
	}, nil
}

func (svc *service) Submit(ctx context.Context, clientID string, update params.Map) (SubmitResult, error) {
	if len(update) == 0 {
		return SubmitResult{}, fmt.Errorf("%w: %w", ErrAggregationPrecondition, errEmptyUpdate)
	}

	svc.mu.Lock()

	if err := svc.clients.Heartbeat(clientID); err != nil {
		svc.mu.Unlock()

		return SubmitResult{}, err
	}

	r := svc.cur
	if !r.add(clientID, update) {
		svc.mu.Unlock()

		return SubmitResult{}, ErrDuplicateSubmission
	}

	if len(r.updates) == svc.quorum {
		// This caller pays the aggregation latency and releases the rest.
		svc.completeRound(ctx, r)
		svc.mu.Unlock()

		if r.err != nil {
			return SubmitResult{}, r.err
		}

		return SubmitResult{Round: r.snap.Round, Version: r.snap.Version}, nil
	}
	svc.mu.Unlock()

	select {
	case <-r.done:
		if r.err != nil {
			return SubmitResult{}, r.err
		}

		return SubmitResult{Round: r.snap.Round, Version: r.snap.Version}, nil
	case <-ctx.Done():
		return svc.abandon(ctx, r, clientID)
	}
}

// completeRound aggregates the collected set, publishes the result and
// installs the successor round. Called with svc.mu held by the
// quorum-completing submitter; the done channel is closed last, after all
// outcome fields are set.
func (svc *service) completeRound(ctx context.Context, r *round) {
	result, err := svc.aggregator.Aggregate(r.collected())
	if err != nil {
		// Fatal to the round: discard the collected set and let clients
		// resubmit into the fresh round.
		r.err = fmt.Errorf("%w: %w", ErrAggregationPrecondition, err)
		svc.logger.Error("round aborted",
			slog.Uint64("round", r.seq),
			slog.Any("error", err))
	} else {
		r.snap = svc.snapshots.Publish(result, r.seq)
		svc.persist(r.snap)
		svc.notify(ctx, r)
	}

	contributors := len(r.updates)
	r.release()
	svc.cur = newRound(r.seq + 1)
	close(r.done)

	if r.err == nil {
		svc.logger.Info("round published",
			slog.Uint64("round", r.seq),
			slog.Uint64("version", r.snap.Version),
			slog.Int("contributors", contributors))
	}
}

func (svc *service) persist(snap snapshot.Snapshot) {
	if svc.files == nil {
		return
	}
	if err := svc.files.Save(snap); err != nil {
		svc.logger.Warn("failed to persist snapshot",
			slog.Uint64("version", snap.Version),
			slog.Any("error", err))
	}
}

func (svc *service) notify(ctx context.Context, r *round) {
	if svc.pubsub == nil {
		return
	}
	msg := map[string]any{
		"round":        r.seq,
		"version":      r.snap.Version,
		"contributors": len(r.updates),
	}
	if err := svc.pubsub.Publish(ctx, svc.baseTopic+completeTopicSuffix, msg); err != nil {
		svc.logger.Warn("failed to announce round completion",
			slog.Uint64("round", r.seq),
			slog.Any("error", err))
	}
}

// abandon handles a waiter whose context expired. If the round closed
// concurrently the published result wins; otherwise the contribution is
// retracted so the remaining submitters still form a full quorum of distinct
// clients.
func (svc *service) abandon(ctx context.Context, r *round, clientID string) (SubmitResult, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	select {
	case <-r.done:
		if r.err != nil {
			return SubmitResult{}, r.err
		}

		return SubmitResult{Round: r.snap.Round, Version: r.snap.Version}, nil
	default:
	}

	r.retract(clientID)

	return SubmitResult{}, fmt.Errorf("%w: %w", ErrQuorumTimeout, ctx.Err())
}
