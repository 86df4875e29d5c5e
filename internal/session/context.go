package session

import (
	"context"

	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
)

type jarKey struct{}

func WithJar(ctx context.Context, jar *Jar) context.Context {
	return context.WithValue(ctx, jarKey{}, jar)
}

// FromContext returns the request's jar, if the session gate installed one.
func FromContext(ctx context.Context) (*Jar, bool) {
	jar, ok := ctx.Value(jarKey{}).(*Jar)
	return jar, ok && jar != nil
}

// RequireJar is FromContext for handlers that cannot run without cookies.
func RequireJar(ctx context.Context) (*Jar, error) {
	if jar, ok := FromContext(ctx); ok {
		return jar, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable")
}
