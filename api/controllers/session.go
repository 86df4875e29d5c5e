package controllers

import (
	"net/http"

	"github.com/forcedotcom/commerce-vercel/api/responses"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

type sessionView struct {
	IsGuestUser bool   `json:"isGuestUser"`
	HasCart     bool   `json:"hasCart"`
	GuestUUID   string `json:"guestUuid,omitempty"`
}

// SessionState reports what the httpOnly session cookies say without exposing them.
func SessionState(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar, err := session.RequireJar(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := jar.State()
		responses.WriteSuccess(w, sessionView{
			IsGuestUser: state.IsGuest,
			HasCart:     state.CartID != "",
			GuestUUID:   jar.GuestUUID(),
		})
	}
}
