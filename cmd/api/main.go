package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/playdepot/playdepot-backend/api"
	"github.com/playdepot/playdepot-backend/api/routes"
	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/internal/checkout"
	"github.com/playdepot/playdepot-backend/internal/games"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/orders"
	"github.com/playdepot/playdepot-backend/internal/users"
	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/env"
	"github.com/playdepot/playdepot-backend/pkg/instance"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/migrate"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
	"github.com/playdepot/playdepot-backend/pkg/redis"
	"github.com/playdepot/playdepot-backend/pkg/security"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	services, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := env.Get(env.Port, cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     ":" + port,
		"instance": instance.GetID(),
	})

	cfg.App.Port = port
	server := api.NewServer(cfg, routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    prometheus.DefaultGatherer,
	}, services))

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	conn := dbClient.DB()

	var cipher *security.CardCipher
	if cfg.Cards.EncryptionKey != "" {
		c, err := security.NewCardCipher(cfg.Cards.EncryptionKey)
		if err != nil {
			return routes.Services{}, err
		}
		cipher = c
	} else {
		logg.Warn(context.Background(), "card encryption key not set, card numbers will only be shown masked")
	}

	libraryRepo := library.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)

	gameSvc, err := games.NewService(games.NewRepository(conn), libraryRepo)
	if err != nil {
		return routes.Services{}, err
	}
	userSvc, err := users.NewService(users.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, gameSvc, libraryRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	librarySvc, err := library.NewService(libraryRepo)
	if err != nil {
		return routes.Services{}, err
	}
	cardSvc, err := cards.NewService(cards.NewRepository(conn), cipher, logg)
	if err != nil {
		return routes.Services{}, err
	}
	addressSvc, err := addresses.NewService(addresses.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(ordersRepo)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:              dbClient,
		Games:           gameSvc,
		Library:         libraryRepo,
		Orders:          ordersRepo,
		Cart:            cartRepo,
		Cards:           cardSvc,
		Addresses:       addressSvc,
		Outbox:          outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:         metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:          logg,
		OrderIDAttempts: cfg.Checkout.OrderIDAttempts,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Games:     gameSvc,
		Users:     userSvc,
		Cart:      cartSvc,
		Library:   librarySvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Cards:     cardSvc,
		Addresses: addressSvc,
	}, nil
}
