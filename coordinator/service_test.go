package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/rendezvous/aggregate"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/pkg/errors"
	"github.com/absmach/rendezvous/pkg/mqtt/mocks"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

// countingAggregator wraps FedAvg and counts invocations so tests can assert
// exactly-once aggregation per round.
type countingAggregator struct {
	calls atomic.Int64
	inner aggregate.Aggregator
}

func newCountingAggregator() *countingAggregator {
	return &countingAggregator{inner: aggregate.NewFedAvg(nil)}
}

func (c *countingAggregator) Aggregate(updates []params.Map) (params.Map, error) {
	c.calls.Add(1)

	return c.inner.Aggregate(updates)
}

func newTestService(t *testing.T, quorum int, agg aggregate.Aggregator) (Service, *mocks.PubSub) {
	t.Helper()

	if agg == nil {
		agg = aggregate.NewFedAvg(nil)
	}
	pubsub := mocks.NewPubSub()
	logger := slog.New(slog.DiscardHandler)
	svc := NewService(registry.New(), agg, snapshot.NewStore(), nil, pubsub, quorum, "rendezvous", logger)

	return svc, pubsub
}

func register(t *testing.T, svc Service, n int) []string {
	t.Helper()

	ids := make([]string, n)
	for i := range ids {
		s, err := svc.Register(context.Background())
		require.NoError(t, err)
		ids[i] = s.ID
	}

	return ids
}

func TestSubmitReleasesAllWithSameVersion(t *testing.T) {
	const quorum = 4
	agg := newCountingAggregator()
	svc, _ := newTestService(t, quorum, agg)
	ids := register(t, svc, quorum)

	results := make([]SubmitResult, quorum)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), id, params.Map{"a": {float64(i)}})
			require.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, int64(1), agg.calls.Load())
	for _, res := range results {
		assert.Equal(t, uint64(1), res.Round)
		assert.Equal(t, uint64(1), res.Version)
	}

	snap, err := svc.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, snap.Params["a"][0], 1e-12)
}

func TestFourSubmittersQuorumTwoFormTwoRounds(t *testing.T) {
	agg := newCountingAggregator()
	svc, _ := newTestService(t, 2, agg)
	ids := register(t, svc, 4)

	results := make([]SubmitResult, 4)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), id, params.Map{"a": {1.0}})
			require.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	// Exactly two quorum pairs, never a 3-vs-1 split or a stuck round.
	assert.Equal(t, int64(2), agg.calls.Load())
	perRound := make(map[uint64]int)
	for _, res := range results {
		perRound[res.Round]++
	}
	assert.Len(t, perRound, 2)
	assert.Equal(t, 2, perRound[1])
	assert.Equal(t, 2, perRound[2])

	status, err := svc.RoundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), status.Round)
	assert.Equal(t, 0, status.Collected)
}

func TestRoundCounterIncrementsByOne(t *testing.T) {
	svc, _ := newTestService(t, 1, nil)
	ids := register(t, svc, 1)

	for want := uint64(1); want <= 5; want++ {
		res, err := svc.Submit(context.Background(), ids[0], params.Map{"a": {1.0}})
		require.NoError(t, err)
		assert.Equal(t, want, res.Round)
		assert.Equal(t, want, res.Version)
	}
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	svc, _ := newTestService(t, 2, nil)
	ids := register(t, svc, 2)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), ids[0], params.Map{"a": {1.0}})
		first <- err
	}()

	require.Eventually(t, func() bool {
		status, err := svc.RoundStatus(context.Background())
		require.NoError(t, err)

		return status.Collected == 1
	}, time.Second, time.Millisecond)

	_, err := svc.Submit(context.Background(), ids[0], params.Map{"a": {2.0}})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// The round is still open for a distinct client.
	_, err = svc.Submit(context.Background(), ids[1], params.Map{"a": {3.0}})
	require.NoError(t, err)
	require.NoError(t, <-first)
}

func TestSubmitUnknownClient(t *testing.T) {
	svc, _ := newTestService(t, 2, nil)

	_, err := svc.Submit(context.Background(), "ghost", params.Map{"a": {1.0}})
	assert.ErrorIs(t, err, errors.ErrUnknownClient)
}

func TestSubmitTimeoutRetractsContribution(t *testing.T) {
	agg := newCountingAggregator()
	svc, _ := newTestService(t, 2, agg)
	ids := register(t, svc, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Submit(ctx, ids[0], params.Map{"a": {100.0}})
	assert.ErrorIs(t, err, ErrQuorumTimeout)

	status, err := svc.RoundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.Collected)

	// The retracted contribution must not leak into the next quorum.
	var wg sync.WaitGroup
	for _, id := range ids[1:] {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), id, params.Map{"a": {2.0}})
			require.NoError(t, err)
			assert.Equal(t, uint64(1), res.Round)
		}(id)
	}
	wg.Wait()

	snap, err := svc.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, snap.Params["a"][0], 1e-12)
	assert.Equal(t, int64(1), agg.calls.Load())
}

func TestAggregationPreconditionAbortsRound(t *testing.T) {
	svc, _ := newTestService(t, 2, aggregate.NewFedAvg(nil))
	ids := register(t, svc, 2)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Submit(context.Background(), ids[0], params.Map{"a": {1.0}})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		// Key set differs, which the aggregator must refuse.
		_, err := svc.Submit(context.Background(), ids[1], params.Map{"b": {1.0}})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrAggregationPrecondition)
	}

	// The round was aborted, not wedged: a clean quorum succeeds afterwards.
	status, err := svc.RoundStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.Round)
	assert.Equal(t, 0, status.Collected)

	var ok sync.WaitGroup
	for _, id := range ids {
		ok.Add(1)
		go func(id string) {
			defer ok.Done()
			_, err := svc.Submit(context.Background(), id, params.Map{"a": {1.0}})
			require.NoError(t, err)
		}(id)
	}
	ok.Wait()

	_, err = svc.FetchSnapshot(context.Background())
	assert.NoError(t, err)
}

func TestEmptyUpdateRejected(t *testing.T) {
	svc, _ := newTestService(t, 2, nil)
	ids := register(t, svc, 1)

	_, err := svc.Submit(context.Background(), ids[0], nil)
	assert.ErrorIs(t, err, ErrAggregationPrecondition)
}

func TestRoundCompletionAnnounced(t *testing.T) {
	svc, pubsub := newTestService(t, 1, nil)
	ids := register(t, svc, 1)

	_, err := svc.Submit(context.Background(), ids[0], params.Map{"a": {1.0}})
	require.NoError(t, err)

	msgs := pubsub.Published("rendezvous/rounds/complete")
	require.Len(t, msgs, 1)
	msg, ok := msgs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint64(1), msg["round"])
	assert.Equal(t, uint64(1), msg["version"])
}

func TestSubmitMarksClientAlive(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	clients := registry.New(registry.WithStaleness(time.Minute), registry.WithClock(clock))
	logger := slog.New(slog.DiscardHandler)
	svc := NewService(clients, aggregate.NewFedAvg(nil), snapshot.NewStore(), nil, nil, 1, "rendezvous", logger)

	s, err := svc.Register(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	size, err := svc.QuerySize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)

	_, err = svc.Submit(context.Background(), s.ID, params.Map{"a": {1.0}})
	require.NoError(t, err)

	size, err = svc.QuerySize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), size)
}
