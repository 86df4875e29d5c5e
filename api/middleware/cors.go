package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/types"
)

// CORS applies the configured storefront origins. Credentials are allowed so
// the browser sends the session cookies.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", types.RequestIDHeader},
		ExposedHeaders:   []string{session.HeaderGuestUser, session.HeaderGuestUUID, types.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
