package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/cookies"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

type sessionResolver interface {
	Resolve(ctx context.Context, jar *session.Jar, refresh bool) session.Resolution
}

// GateOptions carries everything the session gate reads from configuration.
type GateOptions struct {
	Names   session.Names
	Cookies cookies.Policy
	Session config.SessionConfig
}

// NewGateOptions derives gate options from the loaded configuration.
func NewGateOptions(cfg *config.Config) GateOptions {
	return GateOptions{
		Names: session.NamesFor(cfg.Commerce),
		Cookies: cookies.Policy{
			Secure: cfg.Cookies.SecureFor(cfg.App),
			Domain: cfg.Cookies.Domain,
		},
		Session: cfg.Session,
	}
}

// routeMatcher matches exact paths, or prefixes for patterns ending in "*".
type routeMatcher []string

func (m routeMatcher) match(path string) bool {
	for _, pattern := range m {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}

// SessionGate binds a session jar to every request. On gated routes it also
// resolves the guest state, purges stale auth cookies, refreshes the guest
// flag and makes sure the browser carries a guest identity.
func SessionGate(opts GateOptions, resolver sessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	gated := routeMatcher(opts.Session.GateRoutes)
	skipped := routeMatcher(opts.Session.GateSkipRoutes)
	purgeRoutes := routeMatcher(opts.Session.StaleAuthRoutes)
	purgePolicy := strings.ToLower(strings.TrimSpace(opts.Session.StaleAuthPolicy))
	loginPath := opts.Session.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	stalePurgeAllowed := func(path string) bool {
		switch purgePolicy {
		case config.StaleAuthNever:
			return false
		case config.StaleAuthRoutes:
			return purgeRoutes.match(path)
		}
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			applies := gated.match(path) && !skipped.match(path)
			if applies {
				// These headers are set by the gate for downstream handlers only.
				r.Header.Del(session.HeaderGuestUser)
				r.Header.Del(session.HeaderGuestUUID)
			}

			store := cookies.FromRequest(w, r, opts.Cookies)
			jar := session.NewJar(store, opts.Names, r.Header)
			ctx := session.WithJar(r.Context(), jar)

			if !applies || resolver == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			hasToken := jar.AuthToken() != ""
			if opts.Session.RequireLogin && !hasToken && !strings.HasPrefix(path, "/api/") && path != loginPath {
				http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
				return
			}

			res := resolver.Resolve(ctx, jar, hasToken)
			if hasToken && res.IsGuest && res.Source == session.SourceRemote && stalePurgeAllowed(path) {
				jar.PurgeAuth()
				if logg != nil {
					logg.Info(logg.WithField(ctx, "path", path), "session.stale_token.purged")
				}
			}

			jar.SetGuest(res.IsGuest)
			w.Header().Set(session.HeaderGuestUser, strconv.FormatBool(res.IsGuest))

			guestUUID := jar.GuestUUID()
			if guestUUID == "" {
				guestUUID = uuid.NewString()
				jar.SetGuestUUID(guestUUID)
			}
			w.Header().Set(session.HeaderGuestUUID, guestUUID)

			if logg != nil {
				ctx = logg.WithGuestUUID(ctx, guestUUID)
				ctx = logg.WithSession(ctx, res.IsGuest, string(res.Source))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
