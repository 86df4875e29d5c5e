package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/cookies"
)

// State is the cookie-backed session of one browser.
type State struct {
	IsGuest   bool
	AuthToken string
	CSRFToken string
	CartID    string
}

// GuestIdentity is the platform's view of an anonymous shopper.
type GuestIdentity struct {
	GuestEssentialUUID string
	GuestCartSessionID string
}

// Jar reads and writes session cookies through a cookies.Store. When bound to
// inbound headers, x-guest-user and x-guest-uuid take precedence over cookies.
type Jar struct {
	store   cookies.Store
	names   Names
	inbound http.Header
}

var _ commerce.Session = (*Jar)(nil)

func NewJar(store cookies.Store, names Names, inbound http.Header) *Jar {
	return &Jar{store: store, names: names, inbound: inbound}
}

// NewAmbientJar reads a raw Cookie header; writes are kept in memory only.
func NewAmbientJar(rawCookie string, names Names) *Jar {
	return NewJar(cookies.FromHeader(rawCookie), names, nil)
}

func (j *Jar) Names() Names {
	return j.names
}

func (j *Jar) get(name string) string {
	if j == nil || j.store == nil {
		return ""
	}
	v, _ := j.store.Get(name)
	return v
}

func (j *Jar) AuthToken() string {
	return j.get(j.names.AuthToken)
}

// CSRFToken returns the decoded token. A value that is not base64 reads as absent.
func (j *Jar) CSRFToken() string {
	raw := j.get(j.names.CSRFToken)
	if raw == "" {
		return ""
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil {
			return string(decoded)
		}
	}
	return ""
}

// GuestFlag reports the cached guest flag and whether one was present and parsable.
func (j *Jar) GuestFlag() (bool, bool) {
	if j == nil {
		return false, false
	}
	if j.inbound != nil {
		if v, ok := parseBool(j.inbound.Get(HeaderGuestUser)); ok {
			return v, true
		}
	}
	return parseBool(j.get(j.names.IsGuest))
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	var v bool
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, false
	}
	return v, true
}

// IsGuest is always true without a token. With one it uses the cached flag.
func (j *Jar) IsGuest() bool {
	if j.AuthToken() == "" {
		return true
	}
	if v, ok := j.GuestFlag(); ok {
		return v
	}
	return false
}

func (j *Jar) SetGuest(isGuest bool) {
	if j == nil || j.store == nil {
		return
	}
	j.store.Set(j.names.IsGuest, formatBool(isGuest))
	if j.inbound != nil {
		j.inbound.Set(HeaderGuestUser, formatBool(isGuest))
	}
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (j *Jar) CartID() string {
	return j.get(j.names.CartID)
}

func (j *Jar) SetCartID(cartID string) {
	if j == nil || j.store == nil || cartID == "" {
		return
	}
	j.store.Set(j.names.CartID, cartID)
}

func (j *Jar) GuestUUID() string {
	if j == nil {
		return ""
	}
	if j.inbound != nil {
		if v := strings.TrimSpace(j.inbound.Get(HeaderGuestUUID)); v != "" {
			return v
		}
	}
	return j.get(j.names.GuestEssential)
}

// SetGuestUUID stores the guest identity for a year and mirrors it for downstream handlers.
func (j *Jar) SetGuestUUID(id string) {
	if j == nil || j.store == nil || id == "" {
		return
	}
	j.store.Set(j.names.GuestEssential, id, cookies.WithMaxAge(GuestCookieAge))
	if j.inbound != nil {
		j.inbound.Set(HeaderGuestUUID, id)
	}
}

func (j *Jar) GuestCartSessionID() string {
	return j.get(j.names.GuestCartSession)
}

// SetGuestCartSessionID persists the platform-issued guest cart session.
func (j *Jar) SetGuestCartSessionID(id string) {
	if j == nil || j.store == nil || id == "" {
		return
	}
	j.store.Set(j.names.GuestCartSession, id, cookies.WithSecure(true))
}

// Login stores the upgraded sid and the CSRF token and marks the session authenticated.
func (j *Jar) Login(sid, csrfToken string) {
	if j == nil || j.store == nil {
		return
	}
	j.store.Set(j.names.AuthToken, sid,
		cookies.WithSecure(true),
		cookies.WithSameSite(http.SameSiteNoneMode),
	)
	j.store.Set(j.names.CSRFToken, base64.StdEncoding.EncodeToString([]byte(csrfToken)),
		cookies.WithHTTPOnly(false),
		cookies.WithSecure(true),
	)
	j.SetGuest(false)
}

// PurgeAuth removes the auth token and CSRF token.
func (j *Jar) PurgeAuth() {
	if j == nil || j.store == nil {
		return
	}
	j.store.Delete(j.names.AuthToken)
	j.store.Delete(j.names.CSRFToken)
}

// Logout clears the authenticated session and the cart reference and resets the guest flag.
func (j *Jar) Logout() {
	if j == nil || j.store == nil {
		return
	}
	j.PurgeAuth()
	j.store.Delete(j.names.CartID)
	j.SetGuest(true)
}

func (j *Jar) State() State {
	return State{
		IsGuest:   j.IsGuest(),
		AuthToken: j.AuthToken(),
		CSRFToken: j.CSRFToken(),
		CartID:    j.CartID(),
	}
}

func (j *Jar) Identity() GuestIdentity {
	return GuestIdentity{
		GuestEssentialUUID: j.GuestUUID(),
		GuestCartSessionID: j.GuestCartSessionID(),
	}
}

func (j *Jar) Credentials(context.Context) commerce.Credentials {
	return commerce.Credentials{
		IsGuest:            j.IsGuest(),
		AuthToken:          j.AuthToken(),
		CSRFToken:          j.CSRFToken(),
		GuestUUID:          j.GuestUUID(),
		GuestCartSessionID: j.GuestCartSessionID(),
	}
}
