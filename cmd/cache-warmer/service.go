package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
)

type catalogReader interface {
	Categories(ctx context.Context, sess commerce.Session) ([]catalog.Category, error)
	FeaturedFrom(ctx context.Context, sess commerce.Session, categories []catalog.Category) ([]catalog.Product, error)
}

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Catalog catalogReader
	Redis   redis.Pinger
}

// Service keeps the shared category cache warm so storefront requests rarely
// pay for the category fan-out.
type Service struct {
	logg     *logger.Logger
	catalog  catalogReader
	redis    redis.Pinger
	session  commerce.Session
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}

	interval := params.Config.Warmer.Interval
	if interval <= 0 {
		interval = params.Config.Catalog.CategoryCacheTTL
	}
	if interval <= 0 {
		interval = 4 * time.Minute
	}

	return &Service{
		logg:     params.Logger,
		catalog:  params.Catalog,
		redis:    params.Redis,
		session:  session.NewAmbientJar(params.Config.Warmer.Cookie, session.NamesFor(params.Config.Commerce)),
		interval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.redis.Ping(ctx); err != nil {
		s.logg.Error(ctx, "redis ping failed", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Run warms immediately and then on every interval until ctx is canceled.
// A failed round is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.warm(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "cache_warmer.round_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cache warmer context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) warm(ctx context.Context) error {
	start := time.Now()
	categories, err := s.catalog.Categories(ctx, s.session)
	if err != nil {
		return fmt.Errorf("warm categories: %w", err)
	}
	products, err := s.catalog.FeaturedFrom(ctx, s.session, categories)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cache_warmer.featured_failed")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"categories":  len(categories),
		"featured":    len(products),
		"duration_ms": time.Since(start).Milliseconds(),
	}), "cache_warmer.warmed")
	return nil
}

// refreshCache writes through to the shared cache but never serves from it,
// so every round fetches fresh categories.
type refreshCache struct {
	catalog.CategoryCache
}

func (refreshCache) Get(context.Context) ([]catalog.Category, bool) {
	return nil, false
}
