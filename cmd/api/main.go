package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marktkorb/marktkorb-backend/api/routes"
	"github.com/marktkorb/marktkorb-backend/internal/articles"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/internal/dates"
	"github.com/marktkorb/marktkorb-backend/internal/orders"
	"github.com/marktkorb/marktkorb-backend/internal/profiles"
	"github.com/marktkorb/marktkorb-backend/internal/users"
	"github.com/marktkorb/marktkorb-backend/pkg/auth/session"
	"github.com/marktkorb/marktkorb-backend/pkg/config"
	"github.com/marktkorb/marktkorb-backend/pkg/db"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/metrics"
	"github.com/marktkorb/marktkorb-backend/pkg/migrate"
	"github.com/marktkorb/marktkorb-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, "no .env file loaded")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	dateUtils, err := dates.New(cfg.Market)
	requireResource(ctx, logg, "market calendar", err)

	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "register service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		DB:     dbClient.DB(),
		Repo:   orders.NewRepository(dbClient.DB()),
		Dates:  dateUtils,
		Logger: logg,
	})
	requireResource(ctx, logg, "order service", err)

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:   profiles.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	requireResource(ctx, logg, "profile service", err)

	articleService, err := articles.NewService(articles.ServiceParams{
		Repo:      articles.NewRepository(dbClient.DB()),
		Publisher: redisClient,
		Logger:    logg,
	})
	requireResource(ctx, logg, "article service", err)

	articleStream, err := articles.NewStream(redisClient, logg)
	requireResource(ctx, logg, "article stream", err)

	catalogHub, err := basket.NewCatalogHub(basket.CatalogHubParams{
		Stream:      articleStream,
		Lister:      articleService,
		Logger:      logg,
		BaseContext: ctx,
	})
	requireResource(ctx, logg, "catalog hub", err)

	basketManager, err := basket.NewManager(basket.ManagerParams{
		Orders:          orderService,
		Profiles:        profileService,
		Auth:            auth.ContextAuth{},
		Dates:           dateUtils,
		Metrics:         syncMetrics,
		Logger:          logg,
		BaseContext:     ctx,
		MarketID:        cfg.Market.MarketID(),
		PickupDateCount: cfg.Market.PickupDateCount,
	})
	requireResource(ctx, logg, "basket manager", err)

	router := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		Sessions:        sessionManager,
		Registry:        registry,
		AuthService:     authService,
		RegisterService: registerService,
		Baskets:         basketManager,
		Catalogs:        catalogHub,
		Articles:        articleService,
		Orders:          orderService,
		Profiles:        profileService,
		DB:              dbClient,
		Redis:           redisClient,
	})

	port := cfg.App.Port
	if fromEnv := os.Getenv("PORT"); fromEnv != "" {
		port = fromEnv
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	logg.Info(ctx, fmt.Sprintf("api listening on :%s", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
