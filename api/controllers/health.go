package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/forcedotcom/commerce-vercel/api/responses"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
)

const (
	envHeader    = "X-Storefront-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis when it is configured. A nil pinger means the
// service runs on in-memory state and is always ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := redisClient.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "health.redis.unavailable", err)
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]any{"dependency": "redis"}))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
