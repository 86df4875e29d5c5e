package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcedotcom/commerce-vercel/internal/auth"
	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/metrics"
)

type stubResolver struct {
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, jar *session.Jar, refresh bool) session.Resolution {
	s.calls++
	return session.Resolution{IsGuest: true, Source: session.SourceDefault}
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, jar *session.Jar, req auth.LoginRequest) (*auth.LoginResponse, error) {
	jar.Login("SID", "CSRF")
	return &auth.LoginResponse{IsGuestUser: false}, nil
}

func (stubAuthService) Logout(ctx context.Context, jar *session.Jar) *auth.LogoutResponse {
	jar.Logout()
	return &auth.LogoutResponse{Success: true}
}

type stubCatalog struct{}

func (stubCatalog) Categories(ctx context.Context, sess commerce.Session) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "0ZG1", Name: "Chairs"}}, nil
}

func (stubCatalog) ProductsByCategory(ctx context.Context, sess commerce.Session, categoryID string, limit int) ([]catalog.Product, error) {
	return []catalog.Product{}, nil
}

func (stubCatalog) FeaturedProducts(ctx context.Context, sess commerce.Session) ([]catalog.Product, error) {
	return []catalog.Product{}, nil
}

func (stubCatalog) FeaturedFrom(ctx context.Context, sess commerce.Session, categories []catalog.Category) ([]catalog.Product, error) {
	return []catalog.Product{}, nil
}

func (stubCatalog) Product(ctx context.Context, sess commerce.Session, productID string) (*catalog.Product, error) {
	return &catalog.Product{ID: productID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Env: "dev"},
		Commerce: config.CommerceConfig{SiteID: "0DM1", WebstoreID: "0ZE1"},
		Session: config.SessionConfig{
			StaleAuthPolicy: config.StaleAuthAlways,
			GateRoutes:      []string{"/", "/product/*", "/search/*", "/cart*", "/api/*"},
			GateSkipRoutes:  []string{"/api/auth/*"},
			LoginPath:       "/login",
		},
		AuthRateLimit: config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 5, LoginUsernameLimit: 5},
		CORS:          config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *stubResolver, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	resolver := &stubResolver{}
	handler := NewRouter(testConfig(), logger.New(logger.Options{Output: io.Discard}), Services{
		Auth:     stubAuthService{},
		Catalog:  stubCatalog{},
		Resolver: resolver,
	}, Infra{
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	})
	return handler, resolver, reg
}

func TestRouterHealthLive(t *testing.T) {
	handler, resolver, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Zero(t, resolver.calls, "health checks are outside the gate")
}

func TestRouterGatedRouteSetsGuestHeaders(t *testing.T) {
	handler, resolver, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "true", rec.Header().Get(session.HeaderGuestUser))
	guestUUID := rec.Header().Get(session.HeaderGuestUUID)
	require.NotEmpty(t, guestUUID)
	assert.Contains(t, rec.Body.String(), guestUUID)
}

func TestRouterAuthRoutesSkipResolution(t *testing.T) {
	handler, resolver, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"buyer","password":"secret"}`))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], "sid=SID")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, resolver.calls)
}

func TestRouterCatalogRoutes(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	for _, path := range []string{"/api/categories", "/api/products", "/api/products/featured", "/api/products/01t1"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/categories",status="200"} 1`)
}

func TestRouterCORSPreflight(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
