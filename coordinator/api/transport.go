package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/pkg/api"
	pkgerrors "github.com/absmach/rendezvous/pkg/errors"
)

// maxUpdateSize bounds a submitted parameter map; larger models belong on a
// dedicated transfer channel, not the coordination path.
const maxUpdateSize = 1024 * 1024 * 100

func MakeHandler(svc coordinator.Service, instanceID string) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.EncodeError),
	}

	mux := chi.NewRouter()

	mux.Route("/clients", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			registerEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "register").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listClientsEndpoint(svc),
			decodeListClientsReq,
			api.EncodeResponse,
			opts...,
		), "list-clients").ServeHTTP)
		r.Get("/size", otelhttp.NewHandler(kithttp.NewServer(
			querySizeEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "query-size").ServeHTTP)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Post("/heartbeat", otelhttp.NewHandler(kithttp.NewServer(
				heartbeatEndpoint(svc),
				decodeClientReq,
				api.EncodeResponse,
				opts...,
			), "heartbeat").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deregisterEndpoint(svc),
				decodeClientReq,
				api.EncodeResponse,
				opts...,
			), "deregister").ServeHTTP)
		})
	})

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/submissions", otelhttp.NewHandler(kithttp.NewServer(
			submitEndpoint(svc),
			decodeSubmitJSONReq,
			api.EncodeResponse,
			opts...,
		), "submit").ServeHTTP)
		r.Post("/submissions/cbor", otelhttp.NewHandler(kithttp.NewServer(
			submitEndpoint(svc),
			decodeSubmitCBORReq,
			api.EncodeResponse,
			opts...,
		), "submit-cbor").ServeHTTP)
		r.Get("/current", otelhttp.NewHandler(kithttp.NewServer(
			roundStatusEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "round-status").ServeHTTP)
	})

	mux.Get("/snapshot", otelhttp.NewHandler(kithttp.NewServer(
		fetchSnapshotEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "fetch-snapshot").ServeHTTP)

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", api.ContentType)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":      "ok",
			"instance_id": instanceID,
		}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return emptyReq{}, nil
}

func decodeClientReq(_ context.Context, r *http.Request) (any, error) {
	return clientReq{
		id: chi.URLParam(r, "clientID"),
	}, nil
}

func decodeListClientsReq(_ context.Context, r *http.Request) (any, error) {
	offset, err := api.ReadNumQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, err
	}
	limit, err := api.ReadNumQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, err
	}

	return listClientsReq{
		offset: offset,
		limit:  limit,
	}, nil
}

func decodeSubmitJSONReq(_ context.Context, r *http.Request) (any, error) {
	var req submitReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&req); err != nil {
		return nil, errors.Join(pkgerrors.ErrMalformedEntity, err)
	}

	return req, nil
}

func decodeSubmitCBORReq(_ context.Context, r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrMalformedEntity, err)
	}

	var req submitReq
	if err := cbor.Unmarshal(body, &req); err != nil {
		return nil, errors.Join(pkgerrors.ErrMalformedEntity, err)
	}

	return req, nil
}
