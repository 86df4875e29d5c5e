// Package commerce talks to a Salesforce Commerce webstore: it builds endpoint
// URLs, attaches session cookies and CSRF headers to outbound calls, and runs
// the login credential exchange.
package commerce

import "context"

const (
	AuthTokenCookie = "sid"
	CSRFHeader      = "csrf-token"
)

// GuestEssentialCookie is the platform's per-site guest identity cookie name.
func GuestEssentialCookie(siteID string) string {
	return "guest_uuid_essential_" + siteID
}

// GuestCartSessionCookie is the platform-issued guest cart session cookie name.
func GuestCartSessionCookie(webstoreID string) string {
	return "GuestCartSessionId_" + webstoreID
}

// Credentials is what an outbound call may attach. CSRFToken is already decoded.
type Credentials struct {
	IsGuest            bool
	AuthToken          string
	CSRFToken          string
	GuestUUID          string
	GuestCartSessionID string
}

// Session supplies credentials for one caller and receives the guest cart
// session id the platform hands back on cart calls.
type Session interface {
	Credentials(ctx context.Context) Credentials
	SetGuestCartSessionID(id string)
}

type guestSession struct{}

func (guestSession) Credentials(context.Context) Credentials { return Credentials{IsGuest: true} }
func (guestSession) SetGuestCartSessionID(string)            {}

// Anonymous is a Session with no cookies at all.
var Anonymous Session = guestSession{}
