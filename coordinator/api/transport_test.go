package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/rendezvous/aggregate"
	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

func newTestServer(t *testing.T, quorum int) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	svc := coordinator.NewService(
		registry.New(),
		aggregate.NewFedAvg(aggregate.SubstringExclude("bn")),
		snapshot.NewStore(),
		nil,
		nil,
		quorum,
		"rendezvous",
		logger,
	)
	ts := httptest.NewServer(MakeHandler(svc, "test-instance"))
	t.Cleanup(ts.Close)

	return ts
}

func registerClient(t *testing.T, ts *httptest.Server) registry.ClientSession {
	t.Helper()

	resp, err := http.Post(ts.URL+"/clients", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session registry.ClientSession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))

	return session
}

func TestRegisterAndQuerySize(t *testing.T) {
	ts := newTestServer(t, 2)

	first := registerClient(t, ts)
	second := registerClient(t, ts)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint64(1), first.Ordinal)
	assert.Equal(t, uint64(2), second.Ordinal)

	resp, err := http.Get(ts.URL + "/clients/size")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var size struct {
		Size uint64 `json:"size"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&size))
	assert.Equal(t, uint64(2), size.Size)
}

func TestSnapshotBeforeFirstRound(t *testing.T) {
	ts := newTestServer(t, 2)

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitRoundTrip(t *testing.T) {
	ts := newTestServer(t, 2)
	first := registerClient(t, ts)
	second := registerClient(t, ts)

	submit := func(id string, val float64, enc string) *http.Response {
		req := map[string]any{
			"client_id": id,
			"update":    params.Map{"w": {val}, "bn.running_mean": {9.0}},
		}
		var body []byte
		var err error
		var url string
		switch enc {
		case "cbor":
			body, err = cbor.Marshal(req)
			url = ts.URL + "/rounds/submissions/cbor"
		default:
			body, err = json.Marshal(req)
			url = ts.URL + "/rounds/submissions"
		}
		require.NoError(t, err)
		resp, err := http.Post(url, "application/"+enc, bytes.NewReader(body))
		require.NoError(t, err)

		return resp
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		resp := submit(first.ID, 2.0, "json")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}()
	go func() {
		defer wg.Done()
		resp := submit(second.ID, 4.0, "cbor")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}()
	wg.Wait()

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap snapshot.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, uint64(1), snap.Version)
	assert.InDelta(t, 3.0, snap.Params["w"][0], 1e-12)
	_, excluded := snap.Params["bn.running_mean"]
	assert.False(t, excluded)
}

func TestSubmitUnknownClientIsNotFound(t *testing.T) {
	ts := newTestServer(t, 1)

	body, err := json.Marshal(map[string]any{
		"client_id": "ghost",
		"update":    params.Map{"w": {1.0}},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/rounds/submissions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDuplicateSubmissionIsConflict(t *testing.T) {
	ts := newTestServer(t, 2)
	session := registerClient(t, ts)

	body, err := json.Marshal(map[string]any{
		"client_id": session.ID,
		"update":    params.Map{"w": {1.0}},
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.Post(ts.URL+"/rounds/submissions", "application/json", bytes.NewReader(body))
		if err == nil {
			resp.Body.Close()
		}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/rounds/current")
		require.NoError(t, err)
		defer resp.Body.Close()
		var status coordinator.RoundStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))

		return status.Collected == 1
	}, 2*time.Second, time.Millisecond)

	resp, err := http.Post(ts.URL+"/rounds/submissions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Release the blocked submitter.
	other := registerClient(t, ts)
	otherBody, err := json.Marshal(map[string]any{
		"client_id": other.ID,
		"update":    params.Map{"w": {2.0}},
	})
	require.NoError(t, err)
	resp2, err := http.Post(ts.URL+"/rounds/submissions", "application/json", bytes.NewReader(otherBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	<-done
}

func TestDeregister(t *testing.T) {
	ts := newTestServer(t, 2)
	session := registerClient(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/clients/"+session.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
