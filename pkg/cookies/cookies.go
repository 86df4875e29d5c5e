// Package cookies provides read/write access to named cookies in either a
// request-bound server context or an ambient context built from a raw Cookie
// header. Both satisfy Store so callers never branch on where cookies live.
package cookies

import (
	"net/http"
	"time"
)

// Store is the cookie capability handed to session code.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string, opts ...Option)
	Delete(name string)
}

// Options are the attributes written with a cookie.
type Options struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// MaxAge in seconds. Zero produces a session cookie.
	MaxAge int
}

type Option func(*Options)

func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

func WithDomain(domain string) Option {
	return func(o *Options) { o.Domain = domain }
}

func WithSecure(secure bool) Option {
	return func(o *Options) { o.Secure = secure }
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(o *Options) { o.HTTPOnly = httpOnly }
}

func WithSameSite(mode http.SameSite) Option {
	return func(o *Options) { o.SameSite = mode }
}

func WithMaxAge(d time.Duration) Option {
	return func(o *Options) { o.MaxAge = int(d / time.Second) }
}

// Policy holds the deployment-wide defaults every cookie starts from.
type Policy struct {
	Secure bool
	Domain string
}

// Defaults returns path=/, httpOnly, sameSite=lax and the policy's secure flag and domain.
func (p Policy) Defaults() Options {
	return Options{
		Path:     "/",
		Domain:   p.Domain,
		Secure:   p.Secure,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Build applies opts on top of the defaults.
func (p Policy) Build(opts ...Option) Options {
	o := p.Defaults()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o Options) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: o.SameSite,
		MaxAge:   o.MaxAge,
	}
}

func expired(name string, o Options) *http.Cookie {
	c := o.cookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// parseHeader reads a Cookie header leniently; malformed pairs are skipped.
func parseHeader(raw string) []*http.Cookie {
	if raw == "" {
		return nil
	}
	r := &http.Request{Header: http.Header{"Cookie": {raw}}}
	return r.Cookies()
}
