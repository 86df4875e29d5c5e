package session

import (
	"time"

	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
)

const (
	HeaderGuestUser = "x-guest-user"
	HeaderGuestUUID = "x-guest-uuid"

	// GuestCookieAge is how long a minted guest identity lives in the browser.
	GuestCookieAge = 365 * 24 * time.Hour
)

// Names are the cookie names one webstore uses.
type Names struct {
	AuthToken        string
	CSRFToken        string
	IsGuest          string
	CartID           string
	GuestEssential   string
	GuestCartSession string
}

func NamesFor(cfg config.CommerceConfig) Names {
	return Names{
		AuthToken:        commerce.AuthTokenCookie,
		CSRFToken:        commerce.CSRFHeader,
		IsGuest:          "isGuestUser",
		CartID:           "cartId",
		GuestEssential:   commerce.GuestEssentialCookie(cfg.SiteID),
		GuestCartSession: commerce.GuestCartSessionCookie(cfg.WebstoreID),
	}
}
