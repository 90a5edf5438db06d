package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Register(ctx context.Context) (registry.ClientSession, error) {
	ctx, span := tm.tracer.Start(ctx, "register")
	defer span.End()

	return tm.svc.Register(ctx)
}

func (tm *tracing) ListClients(ctx context.Context, offset, limit uint64) (registry.ClientPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-clients", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListClients(ctx, offset, limit)
}

func (tm *tracing) Heartbeat(ctx context.Context, clientID string) error {
	ctx, span := tm.tracer.Start(ctx, "heartbeat", trace.WithAttributes(
		attribute.String("client_id", clientID),
	))
	defer span.End()

	return tm.svc.Heartbeat(ctx, clientID)
}

func (tm *tracing) QuerySize(ctx context.Context) (uint64, error) {
	ctx, span := tm.tracer.Start(ctx, "query-size")
	defer span.End()

	return tm.svc.QuerySize(ctx)
}

func (tm *tracing) Deregister(ctx context.Context, clientID string) error {
	ctx, span := tm.tracer.Start(ctx, "deregister", trace.WithAttributes(
		attribute.String("client_id", clientID),
	))
	defer span.End()

	return tm.svc.Deregister(ctx, clientID)
}

func (tm *tracing) Submit(ctx context.Context, clientID string, update params.Map) (coordinator.SubmitResult, error) {
	ctx, span := tm.tracer.Start(ctx, "submit", trace.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.Int("parameters", len(update)),
	))
	defer span.End()

	return tm.svc.Submit(ctx, clientID, update)
}

func (tm *tracing) FetchSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	ctx, span := tm.tracer.Start(ctx, "fetch-snapshot")
	defer span.End()

	return tm.svc.FetchSnapshot(ctx)
}

func (tm *tracing) RoundStatus(ctx context.Context) (coordinator.RoundStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "round-status")
	defer span.End()

	return tm.svc.RoundStatus(ctx)
}
