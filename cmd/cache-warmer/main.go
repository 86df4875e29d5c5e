package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/instance"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cache-warmer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cache-warmer",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Redis.Enabled() {
		logg.Error(context.Background(), "cache warmer needs a shared cache", errors.New("redis is not configured"))
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

	client := commerce.NewClient(cfg.Commerce, cfg.Login, commerce.WithLogger(logg))
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Client:    client,
		Endpoints: client.Endpoints(),
		Cache:     refreshCache{catalog.NewRedisCache(redisClient, cfg.Commerce.WebstoreID, logg)},
		Config:    cfg.Catalog,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		Catalog: catalogService,
		Redis:   redisClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cache warmer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"webstore": cfg.Commerce.WebstoreName,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting cache warmer")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cache warmer stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cache warmer shutting down gracefully")
}
