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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/forcedotcom/commerce-vercel/api/routes"
	"github.com/forcedotcom/commerce-vercel/internal/auth"
	"github.com/forcedotcom/commerce-vercel/internal/cart"
	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/instance"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/metrics"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := commerce.NewClient(cfg.Commerce, cfg.Login,
		commerce.WithMetrics(metrics.NewCommerceMetrics(reg)),
		commerce.WithLogger(logg),
		commerce.WithCSRFForGuests(cfg.Session.CSRFForGuests),
	)

	infra := routes.Infra{
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	}
	categoryCache := catalog.NewMemoryCache()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		infra.Redis = redisClient
		infra.RateLimiter = redisClient
		categoryCache = catalog.NewRedisCache(redisClient, cfg.Commerce.WebstoreID, logg)
	} else {
		logg.Info(context.Background(), "redis not configured, using in-memory state")
	}

	authService, err := auth.NewService(auth.ServiceParams{Exchanger: client, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Client:    client,
		Endpoints: client.Endpoints(),
		Cache:     categoryCache,
		Config:    cfg.Catalog,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Client:    client,
		Endpoints: client.Endpoints(),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	services := routes.Services{
		Auth:     authService,
		Catalog:  catalogService,
		Cart:     cartService,
		Resolver: session.NewResolver(client, client.Endpoints(), logg),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"webstore": cfg.Commerce.WebstoreName,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services, infra),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	if err != nil {
		logg.Error(ctx, "error during shutdown", err)
		os.Exit(1)
	}
}
