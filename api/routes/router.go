package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forcedotcom/commerce-vercel/api/controllers"
	cartcontrollers "github.com/forcedotcom/commerce-vercel/api/controllers/cart"
	"github.com/forcedotcom/commerce-vercel/api/middleware"
	"github.com/forcedotcom/commerce-vercel/internal/auth"
	"github.com/forcedotcom/commerce-vercel/internal/cart"
	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/metrics"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type guestResolver interface {
	Resolve(ctx context.Context, jar *session.Jar, refresh bool) session.Resolution
}

// Services are the domain services the HTTP layer dispatches to.
type Services struct {
	Auth     auth.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Resolver guestResolver
}

// Infra holds optional infrastructure. Nil interfaces disable the feature
// that depends on them.
type Infra struct {
	Redis       redis.Pinger
	RateLimiter rateLimiter
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services, infra Infra) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.CORS(cfg.CORS),
		middleware.SessionGate(middleware.NewGateOptions(cfg), svc.Resolver, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Redis))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, infra.RateLimiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Get("/session", controllers.SessionState(logg))

		r.Get("/categories", controllers.CatalogCategories(svc.Catalog, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogProducts(svc.Catalog, logg))
			r.Get("/featured", controllers.CatalogFeatured(svc.Catalog, logg))
			r.Get("/{productId}", controllers.CatalogProduct(svc.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
			r.Post("/", cartcontrollers.CartCreate(svc.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{merchandiseId}", cartcontrollers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{merchandiseId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
		})
	})

	return r
}
