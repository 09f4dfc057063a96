package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playdepot/playdepot-backend/api/controllers"
	"github.com/playdepot/playdepot-backend/api/middleware"
	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/internal/checkout"
	"github.com/playdepot/playdepot-backend/internal/games"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/orders"
	"github.com/playdepot/playdepot-backend/internal/users"
	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/redis"
)

// Services groups the domain services the router exposes.
type Services struct {
	Games     *games.Service
	Users     *users.Service
	Cart      *cart.Service
	Library   *library.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Cards     *cards.Service
	Addresses *addresses.Service
}

// Infra carries the shared clients used by health checks and middleware.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/games", controllers.GamesList(svc.Games, logg))
			r.Get("/games/{gameId}", controllers.GamesGet(svc.Games, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/user", controllers.UserProfile(svc.Users, logg))
			r.Get("/library", controllers.LibraryList(svc.Library, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svc.Cart, logg))
				r.Post("/edit", controllers.CartEdit(svc.Cart, logg))
			})

			r.With(middleware.Idempotency(infra.Idempotency, idempotencyTTL(cfg), logg)).
				Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrdersGet(svc.Orders, logg))
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", controllers.CardsList(svc.Cards, logg))
				r.Post("/", controllers.CardsCreate(svc.Cards, logg))
				r.Delete("/{cardId}", controllers.CardsDelete(svc.Cards, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(svc.Addresses, logg))
				r.Post("/", controllers.AddressesCreate(svc.Addresses, logg))
			})
		})
	})

	return r
}

func idempotencyTTL(cfg *config.Config) time.Duration {
	return cfg.Redis.IdempotencyTTL
}
