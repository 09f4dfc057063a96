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

	"github.com/playdepot/playdepot-backend/internal/cron"
	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/instance"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/migrate"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
	"github.com/playdepot/playdepot-backend/pkg/redis"
)

const serviceName = "cron-worker"

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
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "instance": instance.GetID()})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
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

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting cron worker")
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

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Cron.OutboxRetention,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	backlog, err := cron.NewOutboxBacklogJob(logg, outboxRepo,
		metrics.NewOutboxBacklogMetrics(prometheus.DefaultRegisterer), cfg.Outbox.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("outbox backlog job: %w", err)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(backlog, retention),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}

func closeQuietly(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+what, err)
	}
}

// lockName scopes the lease per environment so staging and prod workers
// sharing a Redis do not block each other.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return serviceName + ":" + env
}
