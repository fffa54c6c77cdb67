package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marktkorb/marktkorb-backend/api/controllers"
	"github.com/marktkorb/marktkorb-backend/api/middleware"
	"github.com/marktkorb/marktkorb-backend/internal/articles"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/internal/orders"
	"github.com/marktkorb/marktkorb-backend/internal/profiles"
	"github.com/marktkorb/marktkorb-backend/pkg/auth/session"
	"github.com/marktkorb/marktkorb-backend/pkg/config"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

// RouterParams bundles everything the HTTP surface mounts.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	AuthService     auth.Service
	RegisterService auth.RegisterService
	Baskets         *basket.Manager
	Catalogs        *basket.CatalogHub
	Articles        articles.Service
	Orders          orders.Service
	Profiles        profiles.Service

	DB    Pinger
	Redis Pinger
}

// Pinger is a readiness dependency (database, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/register", controllers.AuthRegister(params.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, params.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", controllers.BasketState(params.Baskets, logg))
			r.Delete("/", controllers.BasketClear(params.Baskets, logg))
			r.Post("/items", controllers.BasketAddItem(params.Baskets, params.Articles, logg))
			r.Put("/items/{productID}", controllers.BasketUpdateItem(params.Baskets, logg))
			r.Delete("/items/{productID}", controllers.BasketRemoveItem(params.Baskets, logg))
			r.Post("/pickup-date", controllers.BasketSelectDate(params.Baskets, logg))
			r.Post("/checkout", controllers.BasketCheckout(params.Baskets, logg))
			r.Post("/merge/resolve", controllers.BasketMergeResolve(params.Baskets, logg))
			r.Post("/merge/confirm", controllers.BasketMergeConfirm(params.Baskets, logg))
			r.Post("/merge/dismiss", controllers.BasketMergeDismiss(params.Baskets, logg))
			r.Post("/update", controllers.BasketUpdateOrder(params.Baskets, logg))
			r.Post("/cancel", controllers.BasketCancelOrder(params.Baskets, logg))
			r.Post("/reorder", controllers.BasketReorder(params.Baskets, params.Catalogs, logg))
		})

		r.Get("/pickup-dates", controllers.PickupDates(params.Baskets, logg))
		r.Get("/orders/upcoming", controllers.OrdersUpcoming(params.Baskets, logg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(params.Profiles, logg))
			r.Post("/favourites/{articleID}", controllers.ProfileAddFavourite(params.Profiles, logg))
			r.Delete("/favourites/{articleID}", controllers.ProfileRemoveFavourite(params.Profiles, logg))
		})

		r.Get("/sellers/{sellerID}/articles", controllers.SellerArticles(params.Articles, logg))

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireSeller(logg))
			r.Get("/orders", controllers.SellerOrders(params.Orders, logg))
			r.Route("/articles", func(r chi.Router) {
				r.Post("/", controllers.SellerArticleCreate(params.Articles, logg))
				r.Put("/{articleID}", controllers.SellerArticleUpdate(params.Articles, logg))
				r.Patch("/{articleID}/availability", controllers.SellerArticleAvailability(params.Articles, logg))
				r.Delete("/{articleID}", controllers.SellerArticleDelete(params.Articles, logg))
			})
		})
	})

	return r
}
