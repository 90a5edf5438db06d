package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/params"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Register(ctx context.Context) (resp registry.ClientSession, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("client",
				slog.String("id", resp.ID),
				slog.Uint64("ordinal", resp.Ordinal),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Register client failed", args...)

			return
		}
		lm.logger.Info("Register client completed successfully", args...)
	}(time.Now())

	return lm.svc.Register(ctx)
}

func (lm *loggingMiddleware) ListClients(ctx context.Context, offset, limit uint64) (resp registry.ClientPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List clients failed", args...)

			return
		}
		lm.logger.Info("List clients completed successfully", args...)
	}(time.Now())

	return lm.svc.ListClients(ctx, offset, limit)
}

func (lm *loggingMiddleware) Heartbeat(ctx context.Context, clientID string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("client",
				slog.String("id", clientID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Heartbeat failed", args...)

			return
		}
		lm.logger.Info("Heartbeat completed successfully", args...)
	}(time.Now())

	return lm.svc.Heartbeat(ctx, clientID)
}

func (lm *loggingMiddleware) QuerySize(ctx context.Context) (resp uint64, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("alive", resp),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Query size failed", args...)

			return
		}
		lm.logger.Info("Query size completed successfully", args...)
	}(time.Now())

	return lm.svc.QuerySize(ctx)
}

func (lm *loggingMiddleware) Deregister(ctx context.Context, clientID string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("client",
				slog.String("id", clientID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Deregister client failed", args...)

			return
		}
		lm.logger.Info("Deregister client completed successfully", args...)
	}(time.Now())

	return lm.svc.Deregister(ctx, clientID)
}

func (lm *loggingMiddleware) Submit(ctx context.Context, clientID string, update params.Map) (resp coordinator.SubmitResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("client",
				slog.String("id", clientID),
			),
			slog.Group("round",
				slog.Uint64("seq", resp.Round),
				slog.Uint64("version", resp.Version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit failed", args...)

			return
		}
		lm.logger.Info("Submit completed successfully", args...)
	}(time.Now())

	return lm.svc.Submit(ctx, clientID, update)
}

func (lm *loggingMiddleware) FetchSnapshot(ctx context.Context) (resp snapshot.Snapshot, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("snapshot",
				slog.Uint64("version", resp.Version),
				slog.Uint64("round", resp.Round),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Fetch snapshot failed", args...)

			return
		}
		lm.logger.Info("Fetch snapshot completed successfully", args...)
	}(time.Now())

	return lm.svc.FetchSnapshot(ctx)
}

func (lm *loggingMiddleware) RoundStatus(ctx context.Context) (resp coordinator.RoundStatus, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("seq", resp.Round),
				slog.Int("collected", resp.Collected),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Round status failed", args...)

			return
		}
		lm.logger.Info("Round status completed successfully", args...)
	}(time.Now())

	return lm.svc.RoundStatus(ctx)
}
