package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

// Source records where a guest determination came from.
type Source string

const (
	SourceCookie  Source = "cookie"
	SourceRemote  Source = "remote"
	SourceDefault Source = "default"
)

type Resolution struct {
	IsGuest bool
	Source  Source
	Err     error
}

// Caller is the slice of the commerce client the resolver needs.
type Caller interface {
	Call(ctx context.Context, sess commerce.Session, method, endpoint string, body any) (*commerce.Response, error)
}

// Resolver decides whether the current caller is a guest.
type Resolver struct {
	client   Caller
	endpoint string
	logg     *logger.Logger
}

func NewResolver(client Caller, endpoints commerce.Endpoints, logg *logger.Logger) *Resolver {
	return &Resolver{client: client, endpoint: endpoints.SessionContext(), logg: logg}
}

var errMissingGuestUser = errors.New("session context response has no guestUser")

// Resolve treats a caller without an auth token as a guest whatever the cached
// flag says. Otherwise it prefers the cached flag unless refresh is set. A
// failed platform lookup fails open to guest.
func (r *Resolver) Resolve(ctx context.Context, jar *Jar, refresh bool) Resolution {
	token := jar.AuthToken()
	if token == "" {
		return Resolution{IsGuest: true, Source: SourceDefault}
	}

	if !refresh {
		if v, ok := jar.GuestFlag(); ok {
			return Resolution{IsGuest: v, Source: SourceCookie}
		}
	}

	isGuest, err := r.fetchGuestUser(ctx, token)
	if err != nil {
		if r.logg != nil {
			r.logg.Error(ctx, "session.resolve.failed", err)
		}
		return Resolution{IsGuest: true, Source: SourceDefault, Err: err}
	}
	return Resolution{IsGuest: isGuest, Source: SourceRemote}
}

func (r *Resolver) fetchGuestUser(ctx context.Context, token string) (bool, error) {
	if r == nil || r.client == nil {
		return true, errors.New("session resolver has no commerce client")
	}
	resp, err := r.client.Call(ctx, tokenProbe{token: token}, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return true, err
	}
	var payload struct {
		GuestUser *bool `json:"guestUser"`
	}
	if err := resp.Decode(&payload); err != nil {
		return true, err
	}
	if payload.GuestUser == nil {
		return true, errMissingGuestUser
	}
	return *payload.GuestUser, nil
}

// tokenProbe asks about the stored token even when the cached flag says guest.
type tokenProbe struct {
	token string
}

func (p tokenProbe) Credentials(context.Context) commerce.Credentials {
	return commerce.Credentials{AuthToken: p.token}
}

func (tokenProbe) SetGuestCartSessionID(string) {}
