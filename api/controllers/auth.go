package controllers

import (
	"net/http"
	"strconv"

	"github.com/forcedotcom/commerce-vercel/api/responses"
	"github.com/forcedotcom/commerce-vercel/api/validators"
	"github.com/forcedotcom/commerce-vercel/internal/auth"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

const maxUsernameLen = 255

// AuthLogin exchanges shopper credentials for a platform session and stores it in cookies.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		jar, err := session.RequireJar(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Username = validators.SanitizeString(body.Username, maxUsernameLen)

		result, err := svc.Login(r.Context(), jar, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(session.HeaderGuestUser, strconv.FormatBool(result.IsGuestUser))
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout clears the session cookies. It succeeds whether or not a session existed.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		jar, err := session.RequireJar(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.Logout(r.Context(), jar)
		w.Header().Set(session.HeaderGuestUser, "true")
		responses.WriteSuccess(w, result)
	}
}
