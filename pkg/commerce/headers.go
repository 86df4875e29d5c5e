package commerce

import (
	"net/http"
	"net/url"
	"strings"
)

// HeaderPolicy names the cookies used on guest cart calls.
type HeaderPolicy struct {
	SiteID        string
	WebstoreID    string
	CSRFForGuests bool
}

// ComposeHeaders builds the outbound headers for one platform call.
// Authenticated callers send their sid and, on mutating cart-item calls, the
// CSRF token. Guests send their identity cookies only on cart calls.
func ComposeHeaders(method, endpoint string, creds Credentials, policy HeaderPolicy) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	path := endpointPath(endpoint)
	var pairs []string

	if !creds.IsGuest {
		if creds.AuthToken != "" {
			pairs = append(pairs, AuthTokenCookie+"="+creds.AuthToken)
		}
		if creds.CSRFToken != "" && isCartItemMutation(method, path) {
			h.Set(CSRFHeader, creds.CSRFToken)
		}
	} else {
		if strings.Contains(path, "carts") {
			if creds.GuestUUID != "" {
				pairs = append(pairs, GuestEssentialCookie(policy.SiteID)+"="+creds.GuestUUID)
			}
			if creds.GuestCartSessionID != "" {
				pairs = append(pairs, GuestCartSessionCookie(policy.WebstoreID)+"="+creds.GuestCartSessionID)
			}
		}
		if policy.CSRFForGuests && creds.CSRFToken != "" && isCartItemMutation(method, path) {
			h.Set(CSRFHeader, creds.CSRFToken)
		}
	}

	if len(pairs) > 0 {
		h.Set("Cookie", strings.Join(pairs, "; "))
	}
	return h
}

func isCartItemMutation(method, path string) bool {
	if !strings.Contains(path, "cart-items") {
		return false
	}
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// WithGuestFlag appends isGuest=true|false, keeping any query already present.
func WithGuestFlag(endpoint string, isGuest bool) string {
	flag := "isGuest=false"
	if isGuest {
		flag = "isGuest=true"
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		if strings.Contains(endpoint, "?") {
			return endpoint + "&" + flag
		}
		return endpoint + "?" + flag
	}
	if u.RawQuery == "" {
		u.RawQuery = flag
	} else {
		u.RawQuery += "&" + flag
	}
	return u.String()
}

func endpointPath(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil {
		return u.Path
	}
	path, _, _ := strings.Cut(endpoint, "?")
	return path
}
