package api

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/pkg/errors"
)

func registerEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return registerResponse{}, errors.ErrMalformedEntity
		}

		session, err := svc.Register(ctx)
		if err != nil {
			return registerResponse{}, err
		}

		return registerResponse{
			ClientSession: session,
		}, nil
	}
}

func listClientsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listClientsReq)
		if !ok {
			return listClientsResponse{}, errors.ErrMalformedEntity
		}
		if err := req.validate(); err != nil {
			return listClientsResponse{}, err
		}

		page, err := svc.ListClients(ctx, req.offset, req.limit)
		if err != nil {
			return listClientsResponse{}, err
		}

		return listClientsResponse{
			ClientPage: page,
		}, nil
	}
}

func heartbeatEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(clientReq)
		if !ok {
			return heartbeatResponse{}, errors.ErrMalformedEntity
		}
		if err := req.validate(); err != nil {
			return heartbeatResponse{}, err
		}

		if err := svc.Heartbeat(ctx, req.id); err != nil {
			return heartbeatResponse{}, err
		}

		return heartbeatResponse{}, nil
	}
}

func querySizeEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return sizeResponse{}, errors.ErrMalformedEntity
		}

		size, err := svc.QuerySize(ctx)
		if err != nil {
			return sizeResponse{}, err
		}

		return sizeResponse{
			Size: size,
		}, nil
	}
}

func deregisterEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(clientReq)
		if !ok {
			return deregisterResponse{}, errors.ErrMalformedEntity
		}
		if err := req.validate(); err != nil {
			return deregisterResponse{}, err
		}

		if err := svc.Deregister(ctx, req.id); err != nil {
			return deregisterResponse{}, err
		}

		return deregisterResponse{}, nil
	}
}

func submitEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(submitReq)
		if !ok {
			return submitResponse{}, errors.ErrMalformedEntity
		}
		if err := req.validate(); err != nil {
			return submitResponse{}, err
		}

		result, err := svc.Submit(ctx, req.ClientID, req.Update)
		if err != nil {
			return submitResponse{}, err
		}

		return submitResponse{
			SubmitResult: result,
		}, nil
	}
}

func fetchSnapshotEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return snapshotResponse{}, errors.ErrMalformedEntity
		}

		snap, err := svc.FetchSnapshot(ctx)
		if err != nil {
			return snapshotResponse{}, err
		}

		return snapshotResponse{
			Snapshot: snap,
		}, nil
	}
}

func roundStatusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return roundStatusResponse{}, errors.ErrMalformedEntity
		}

		status, err := svc.RoundStatus(ctx)
		if err != nil {
			return roundStatusResponse{}, err
		}

		return roundStatusResponse{
			RoundStatus: status,
		}, nil
	}
}
