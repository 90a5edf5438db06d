package api

import (
	"net/http"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/pkg/api"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

var (
	_ api.Response = (*registerResponse)(nil)
	_ api.Response = (*listClientsResponse)(nil)
	_ api.Response = (*sizeResponse)(nil)
	_ api.Response = (*deregisterResponse)(nil)
	_ api.Response = (*submitResponse)(nil)
	_ api.Response = (*snapshotResponse)(nil)
	_ api.Response = (*roundStatusResponse)(nil)
	_ api.Response = (*heartbeatResponse)(nil)
)

type registerResponse struct {
	registry.ClientSession
}

func (r registerResponse) Code() int {
	return http.StatusCreated
}

func (r registerResponse) Headers() map[string]string {
	return map[string]string{
		"Location": "/clients/" + r.ID,
	}
}

func (r registerResponse) Empty() bool {
	return false
}

type listClientsResponse struct {
	registry.ClientPage
}

func (r listClientsResponse) Code() int {
	return http.StatusOK
}

func (r listClientsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r listClientsResponse) Empty() bool {
	return false
}

type sizeResponse struct {
	Size uint64 `json:"size"`
}

func (r sizeResponse) Code() int {
	return http.StatusOK
}

func (r sizeResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r sizeResponse) Empty() bool {
	return false
}

type heartbeatResponse struct{}

func (r heartbeatResponse) Code() int {
	return http.StatusOK
}

func (r heartbeatResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r heartbeatResponse) Empty() bool {
	return true
}

type deregisterResponse struct{}

func (r deregisterResponse) Code() int {
	return http.StatusNoContent
}

func (r deregisterResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r deregisterResponse) Empty() bool {
	return true
}

type submitResponse struct {
	coordinator.SubmitResult
}

func (r submitResponse) Code() int {
	return http.StatusOK
}

func (r submitResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r submitResponse) Empty() bool {
	return false
}

type snapshotResponse struct {
	snapshot.Snapshot
}

func (r snapshotResponse) Code() int {
	return http.StatusOK
}

func (r snapshotResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r snapshotResponse) Empty() bool {
	return false
}

type roundStatusResponse struct {
	coordinator.RoundStatus
}

func (r roundStatusResponse) Code() int {
	return http.StatusOK
}

func (r roundStatusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r roundStatusResponse) Empty() bool {
	return false
}
