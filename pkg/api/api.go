// Package api holds transport helpers shared by HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/absmach/rendezvous/coordinator"
	pkgerrors "github.com/absmach/rendezvous/pkg/errors"
	"github.com/absmach/rendezvous/snapshot"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// Response lets endpoint responses control their HTTP representation.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, pkgerrors.ErrUnknownClient),
		errors.Is(err, pkgerrors.ErrNotFound),
		errors.Is(err, snapshot.ErrNoSnapshot):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, coordinator.ErrDuplicateSubmission):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, coordinator.ErrQuorumTimeout):
		w.WriteHeader(http.StatusRequestTimeout)
	case errors.Is(err, pkgerrors.ErrEmptyClientID),
		errors.Is(err, pkgerrors.ErrMalformedEntity),
		errors.Is(err, coordinator.ErrAggregationPrecondition):
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ReadNumQuery parses an unsigned numeric query parameter, falling back to
// def when absent.
func ReadNumQuery(r *http.Request, key string, def uint64) (uint64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errors.Join(pkgerrors.ErrMalformedEntity, err)
	}

	return n, nil
}
