// Command streamhub runs the real-time streaming server: it authenticates
// WebSocket and event-stream clients, ingests domain events from Redis and fans
// them out through the hub.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/streamhub/pkg/auth"
	"github.com/dmitrymomot/streamhub/pkg/config"
	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/metrics"
	"github.com/dmitrymomot/streamhub/pkg/pg"
	"github.com/dmitrymomot/streamhub/pkg/redisbus"
	"github.com/dmitrymomot/streamhub/pkg/relationship"
	"github.com/dmitrymomot/streamhub/pkg/server"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

const serviceName = "streamhub"

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	Stream       stream.Config
	Server       server.Config
	Auth         auth.Config
	Relationship relationship.CacheConfig
	Redis        redisbus.Config
	Postgres     pg.Config
}

func main() {
	if err := run(); err != nil {
		slog.Error("streamhub stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Postgres.RunMigrations {
		if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			return err
		}
	}

	rdb, err := redisbus.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	collector := metrics.New()
	rels := relationship.NewCached(relationship.NewPostgres(pool), cfg.Relationship)
	hub, err := stream.New(rels,
		stream.WithConfig(cfg.Stream),
		stream.WithLogger(log),
		stream.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	ingest := redisbus.NewSubscriber(rdb, hub,
		redisbus.WithChannel(cfg.Redis.Channel),
		redisbus.WithSubscriberLogger(log),
		redisbus.WithIngestMetrics(collector),
	)

	handler := server.NewHandler(hub, verifier, cfg.Server,
		server.WithHandlerLogger(log),
		server.WithMetricsHandler(collector.Handler()),
		server.WithReadinessCheck(pg.Healthcheck(pool)),
		server.WithReadinessCheck(redisbus.Healthcheck(rdb)),
	)
	srv := server.New(cfg.Server,
		server.WithLogger(log),
		server.WithShutdownHook(hub.Close),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, handler.Routes()) })
	g.Go(func() error { return ingest.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.LogAttrs(context.Background(), slog.LevelInfo, "streamhub exited")
	return nil
}

func newLogger(cfg appConfig) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithContextExtractors(server.RequestIDExtractor),
	}
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...), nil
}
