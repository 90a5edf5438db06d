package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/rendezvous/pkg/errors"
)

func TestRegisterAssignsDistinctIDsAndOrdinals(t *testing.T) {
	const k = 32
	r := New()

	var wg sync.WaitGroup
	sessions := make([]ClientSession, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Register()
			require.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool, k)
	ordinals := make(map[uint64]bool, k)
	for _, s := range sessions {
		assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
		ids[s.ID] = true
		ordinals[s.Ordinal] = true
		assert.Equal(t, StatusAlive, s.Status)
		assert.NotEmpty(t, s.Name)
	}
	for ord := uint64(1); ord <= k; ord++ {
		assert.True(t, ordinals[ord], "missing ordinal %d", ord)
	}
}

func TestCountAliveSweepsStaleSessions(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	r := New(WithStaleness(300*time.Second), WithClock(clock))

	fresh, err := r.Register()
	require.NoError(t, err)
	stale, err := r.Register()
	require.NoError(t, err)

	assert.Equal(t, uint64(2), r.CountAlive())

	// Advance past the staleness threshold, then keep one session active.
	now = now.Add(301 * time.Second)
	require.NoError(t, r.Heartbeat(fresh.ID))

	assert.Equal(t, uint64(1), r.CountAlive())

	// DEAD sessions are marked, never removed: deregistration still works.
	require.NoError(t, r.Deregister(stale.ID))
	assert.Equal(t, uint64(1), r.CountAlive())
}

func TestHeartbeatRevivesDeadSession(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	r := New(WithStaleness(time.Second), WithClock(clock))

	s, err := r.Register()
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	assert.Equal(t, uint64(0), r.CountAlive())

	require.NoError(t, r.Heartbeat(s.ID))
	assert.Equal(t, uint64(1), r.CountAlive())
}

func TestUnknownClient(t *testing.T) {
	r := New()

	assert.ErrorIs(t, r.Heartbeat("nope"), errors.ErrUnknownClient)
	assert.ErrorIs(t, r.Deregister("nope"), errors.ErrUnknownClient)
	assert.ErrorIs(t, r.Heartbeat(""), errors.ErrEmptyClientID)
}

func TestListReturnsJoinOrder(t *testing.T) {
	r := New()

	first, err := r.Register()
	require.NoError(t, err)
	second, err := r.Register()
	require.NoError(t, err)
	third, err := r.Register()
	require.NoError(t, err)

	page, err := r.List(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Clients, 3)
	assert.Equal(t, first.ID, page.Clients[0].ID)
	assert.Equal(t, second.ID, page.Clients[1].ID)
	assert.Equal(t, third.ID, page.Clients[2].ID)

	page, err = r.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page.Clients, 1)
	assert.Equal(t, second.ID, page.Clients[0].ID)

	page, err = r.List(5, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Clients)
}
