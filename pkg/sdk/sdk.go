// Package sdk is the HTTP client used by workers and the CLI to talk to the
// coordinator.
package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"
)

type SDK interface {
	// Register obtains a new client identity from the coordinator.
	//
	// example:
	//  session, _ := sdk.Register()
	//  fmt.Println(session.ID, session.Ordinal)
	Register() (registry.ClientSession, error)

	// ListClients lists registered clients.
	//
	// example:
	//  page, _ := sdk.ListClients(0, 10)
	//  fmt.Println(page)
	ListClients(offset, limit uint64) (registry.ClientPage, error)

	// QuerySize returns the number of clients currently alive.
	//
	// example:
	//  size, _ := sdk.QuerySize()
	//  fmt.Println(size)
	QuerySize() (uint64, error)

	// Heartbeat refreshes the client's liveness timestamp.
	//
	// example:
	//  _ = sdk.Heartbeat("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	Heartbeat(id string) error

	// FetchSnapshot fetches the latest published aggregate. It returns
	// snapshot.ErrNoSnapshot before the first round completes.
	//
	// example:
	//  snap, _ := sdk.FetchSnapshot()
	//  fmt.Println(snap.Version)
	FetchSnapshot() (snapshot.Snapshot, error)

	// Submit contributes a parameter map to the open round and blocks until
	// the round's aggregate is published.
	//
	// example:
	//  res, _ := sdk.Submit(id, params.Map{"w": {0.5}})
	//  fmt.Println(res.Version)
	Submit(id string, update params.Map) (coordinator.SubmitResult, error)

	// RoundStatus reports the open round's progress.
	//
	// example:
	//  status, _ := sdk.RoundStatus()
	//  fmt.Println(status.Collected, status.Quorum)
	RoundStatus() (coordinator.RoundStatus, error)

	// Deregister removes the client's session.
	//
	// example:
	//  _ = sdk.Deregister("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	Deregister(id string) error
}

type rdvSDK struct {
	coordinatorURL string
	useCBOR        bool
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool

	// UseCBOR switches submissions to the compact CBOR route.
	UseCBOR bool
}

func NewSDK(cfg Config) SDK {
	return &rdvSDK{
		coordinatorURL: cfg.CoordinatorURL,
		useCBOR:        cfg.UseCBOR,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *rdvSDK) Register() (registry.ClientSession, error) {
	body, err := sdk.processRequest(http.MethodPost, sdk.coordinatorURL+clientsEndpoint, CTJSON, nil, http.StatusCreated)
	if err != nil {
		return registry.ClientSession{}, err
	}

	var session registry.ClientSession
	if err := json.Unmarshal(body, &session); err != nil {
		return registry.ClientSession{}, err
	}

	return session, nil
}

func (sdk *rdvSDK) ListClients(offset, limit uint64) (registry.ClientPage, error) {
	url := fmt.Sprintf("%s%s?offset=%d&limit=%d", sdk.coordinatorURL, clientsEndpoint, offset, limit)
	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return registry.ClientPage{}, err
	}

	var page registry.ClientPage
	if err := json.Unmarshal(body, &page); err != nil {
		return registry.ClientPage{}, err
	}

	return page, nil
}

func (sdk *rdvSDK) QuerySize() (uint64, error) {
	body, err := sdk.processRequest(http.MethodGet, sdk.coordinatorURL+sizeEndpoint, CTJSON, nil, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Size uint64 `json:"size"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, err
	}

	return resp.Size, nil
}

func (sdk *rdvSDK) Heartbeat(id string) error {
	url := sdk.coordinatorURL + clientsEndpoint + "/" + id + "/heartbeat"
	if _, err := sdk.processRequest(http.MethodPost, url, CTJSON, nil, http.StatusOK); err != nil {
		return err
	}

	return nil
}

func (sdk *rdvSDK) FetchSnapshot() (snapshot.Snapshot, error) {
	resp, err := sdk.do(http.MethodGet, sdk.coordinatorURL+snapshotEndpoint, CTJSON, nil)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return snapshot.Snapshot{}, snapshot.ErrNoSnapshot
	}
	if resp.StatusCode != http.StatusOK {
		return snapshot.Snapshot{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	var snap snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snapshot.Snapshot{}, err
	}

	return snap, nil
}

func (sdk *rdvSDK) Submit(id string, update params.Map) (coordinator.SubmitResult, error) {
	req := struct {
		ClientID string     `json:"client_id"`
		Update   params.Map `json:"update"`
	}{
		ClientID: id,
		Update:   update,
	}

	url := sdk.coordinatorURL + submitEndpoint
	contentType := CTJSON
	var data []byte
	var err error
	if sdk.useCBOR {
		url = sdk.coordinatorURL + submitCBOREndpoint
		contentType = CTCBOR
		data, err = cbor.Marshal(req)
	} else {
		data, err = json.Marshal(req)
	}
	if err != nil {
		return coordinator.SubmitResult{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, url, contentType, data, http.StatusOK)
	if err != nil {
		return coordinator.SubmitResult{}, err
	}

	var result coordinator.SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return coordinator.SubmitResult{}, err
	}

	return result, nil
}

func (sdk *rdvSDK) RoundStatus() (coordinator.RoundStatus, error) {
	body, err := sdk.processRequest(http.MethodGet, sdk.coordinatorURL+roundStatusEndpoint, CTJSON, nil, http.StatusOK)
	if err != nil {
		return coordinator.RoundStatus{}, err
	}

	var status coordinator.RoundStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return coordinator.RoundStatus{}, err
	}

	return status, nil
}

func (sdk *rdvSDK) Deregister(id string) error {
	url := sdk.coordinatorURL + clientsEndpoint + "/" + id
	if _, err := sdk.processRequest(http.MethodDelete, url, CTJSON, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}

func (sdk *rdvSDK) do(method, reqURL, contentType string, data []byte) (*http.Response, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", contentType)

	return sdk.client.Do(req)
}

func (sdk *rdvSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	resp, err := sdk.do(method, reqURL, contentType, data)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
