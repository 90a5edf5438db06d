package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Register(ctx context.Context) (registry.ClientSession, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "register").Add(1)
		mm.latency.With("method", "register").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Register(ctx)
}

func (mm *metricsMiddleware) ListClients(ctx context.Context, offset, limit uint64) (registry.ClientPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-clients").Add(1)
		mm.latency.With("method", "list-clients").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListClients(ctx, offset, limit)
}

func (mm *metricsMiddleware) Heartbeat(ctx context.Context, clientID string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "heartbeat").Add(1)
		mm.latency.With("method", "heartbeat").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Heartbeat(ctx, clientID)
}

func (mm *metricsMiddleware) QuerySize(ctx context.Context) (uint64, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "query-size").Add(1)
		mm.latency.With("method", "query-size").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.QuerySize(ctx)
}

func (mm *metricsMiddleware) Deregister(ctx context.Context, clientID string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "deregister").Add(1)
		mm.latency.With("method", "deregister").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Deregister(ctx, clientID)
}

func (mm *metricsMiddleware) Submit(ctx context.Context, clientID string, update params.Map) (coordinator.SubmitResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit").Add(1)
		mm.latency.With("method", "submit").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Submit(ctx, clientID, update)
}

func (mm *metricsMiddleware) FetchSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "fetch-snapshot").Add(1)
		mm.latency.With("method", "fetch-snapshot").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.FetchSnapshot(ctx)
}

func (mm *metricsMiddleware) RoundStatus(ctx context.Context) (coordinator.RoundStatus, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "round-status").Add(1)
		mm.latency.With("method", "round-status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RoundStatus(ctx)
}
