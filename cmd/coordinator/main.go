package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/rendezvous/aggregate"
	"github.com/absmach/rendezvous/coordinator"
	"github.com/absmach/rendezvous/coordinator/api"
	"github.com/absmach/rendezvous/coordinator/middleware"
	"github.com/absmach/rendezvous/pkg/mqtt"
	"github.com/absmach/rendezvous/pkg/prometheus"
	"github.com/absmach/rendezvous/pkg/server"
	httpserver "github.com/absmach/rendezvous/pkg/server/http"
	"github.com/absmach/rendezvous/pkg/tracing"
	"github.com/absmach/rendezvous/registry"
	"github.com/absmach/rendezvous/snapshot"
)

const (
	svcName       = "coordinator"
	defHTTPPort   = "7070"
	envPrefixHTTP = "RENDEZVOUS_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel        string        `env:"RENDEZVOUS_LOG_LEVEL"          envDefault:"info"`
	InstanceID      string        `env:"RENDEZVOUS_INSTANCE_ID"`
	Quorum          int           `env:"RENDEZVOUS_QUORUM"             envDefault:"2"`
	Staleness       time.Duration `env:"RENDEZVOUS_STALENESS"          envDefault:"300s"`
	ExcludedFields  []string      `env:"RENDEZVOUS_EXCLUDED_FIELDS"    envDefault:"bn"`
	SnapshotDir     string        `env:"RENDEZVOUS_SNAPSHOT_DIR"`
	BaseTopic       string        `env:"RENDEZVOUS_BASE_TOPIC"         envDefault:"rendezvous"`
	MQTTAddress     string        `env:"RENDEZVOUS_MQTT_ADDRESS"`
	MQTTQoS         uint8         `env:"RENDEZVOUS_MQTT_QOS"           envDefault:"2"`
	MQTTTimeout     time.Duration `env:"RENDEZVOUS_MQTT_TIMEOUT"       envDefault:"30s"`
	OTELURL         url.URL       `env:"RENDEZVOUS_OTEL_URL"`
	TraceRatio      float64       `env:"RENDEZVOUS_TRACE_RATIO"        envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := tracing.NewProvider(ctx, svcName, cfg.OTELURL, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		ps, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName+"-"+cfg.InstanceID, cfg.MQTTTimeout, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		pubsub = ps
		defer func() {
			if err := ps.Disconnect(ctx); err != nil {
				logger.Error("error disconnecting mqtt client", slog.Any("error", err))
			}
		}()
	}

	snapshots := snapshot.NewStore()
	var files *snapshot.FileStore
	if cfg.SnapshotDir != "" {
		fs, err := snapshot.NewFileStore(cfg.SnapshotDir)
		if err != nil {
			logger.Error("failed to initialize snapshot file store", slog.String("error", err.Error()))

			return
		}
		files = fs
		if snap, err := fs.LoadLatest(); err == nil {
			snapshots.Seed(snap)
			logger.Info("seeded baseline snapshot",
				slog.Uint64("version", snap.Version),
				slog.Uint64("round", snap.Round))
		}
	}

	clients := registry.New(registry.WithStaleness(cfg.Staleness))
	aggregator := aggregate.NewFedAvg(aggregate.SubstringExclude(cfg.ExcludedFields...))

	svc := coordinator.NewService(
		clients,
		aggregator,
		snapshots,
		files,
		pubsub,
		cfg.Quorum,
		cfg.BaseTopic,
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
