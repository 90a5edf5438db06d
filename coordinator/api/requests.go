package api

import (
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/pkg/errors"
)

type submitReq struct {
	ClientID string     `json:"client_id"`
	Update   params.Map `json:"update"`
}

func (r *submitReq) validate() error {
	if r.ClientID == "" {
		return errors.ErrEmptyClientID
	}
	if len(r.Update) == 0 {
		return errors.ErrMalformedEntity
	}

	return nil
}

type clientReq struct {
	id string
}

func (r *clientReq) validate() error {
	if r.id == "" {
		return errors.ErrEmptyClientID
	}

	return nil
}

type listClientsReq struct {
	offset, limit uint64
}

func (r *listClientsReq) validate() error {
	return nil
}

type emptyReq struct{}
