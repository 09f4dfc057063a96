package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/instance"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/migrate"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
	"github.com/playdepot/playdepot-backend/pkg/pubsub"
	"github.com/playdepot/playdepot-backend/pkg/redis"
)

const serviceName = "outbox-publisher"

func main() {
	boot := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"instance":  instance.GetID(),
		"transport": cfg.Outbox.NormalizedTransport(),
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	transport, destination, closeTransport, err := openTransport(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("bootstrap event transport: %w", err)
	}
	defer closeQuietly(ctx, logg, "event transport", closeTransport)

	service, err := NewService(ServiceParams{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Stream:      transport,
		Repository:  outbox.NewRepository(dbClient.DB()),
		Metrics:     metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		InstanceID:  instance.GetID(),
		Destination: destination,
	})
	if err != nil {
		return fmt.Errorf("create outbox publisher: %w", err)
	}

	ctx = logg.WithField(ctx, "destination", destination)
	logg.Info(ctx, "starting outbox publisher")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := service.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.App.MetricsAddr, prometheus.DefaultGatherer, logg)
	})
	return g.Wait()
}

// openTransport connects the configured event sink and returns the
// destination name the service publishes to.
func openTransport(ctx context.Context, cfg *config.Config, logg *logger.Logger) (streamPublisher, string, func() error, error) {
	if cfg.Outbox.NormalizedTransport() == config.TransportPubSub {
		client, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			return nil, "", nil, err
		}
		return client, cfg.PubSub.Topic, client.Close, nil
	}
	client, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, "", nil, err
	}
	return client, cfg.Outbox.Stream, client.Close, nil
}

func closeQuietly(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+what, err)
	}
}
