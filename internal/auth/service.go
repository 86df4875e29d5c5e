package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/forcedotcom/commerce-vercel/internal/session"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, jar *session.Jar, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, jar *session.Jar) *LogoutResponse
}

// exchanger is the three-step platform login implemented by commerce.Client.
type exchanger interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	UpgradeSession(ctx context.Context, redirectURL string) (string, error)
	FetchCSRFToken(ctx context.Context, sid string) (string, error)
}

type service struct {
	exchange exchanger
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Exchanger exchanger
	Logger    *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Exchanger == nil {
		return nil, fmt.Errorf("commerce exchanger is required")
	}
	return &service{exchange: params.Exchanger, logg: params.Logger}, nil
}

// Login exchanges credentials for a platform session. Cookies are written only
// after all three steps succeed.
func (s *service) Login(ctx context.Context, jar *session.Jar, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	if jar == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable")
	}

	redirect, err := s.exchange.Authenticate(ctx, username, req.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	sid, err := s.exchange.UpgradeSession(ctx, redirect)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	csrfToken, err := s.exchange.FetchCSRFToken(ctx, sid)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	jar.Login(sid, csrfToken)
	if s.logg != nil {
		s.logg.Info(ctx, "auth.login.succeeded")
	}
	return &LoginResponse{IsGuestUser: false}, nil
}

func (s *service) fail(ctx context.Context, err error) error {
	if s.logg != nil {
		logCtx := ctx
		if typed := pkgerrors.As(err); typed != nil {
			if details, ok := typed.Details().(map[string]any); ok {
				logCtx = s.logg.WithField(ctx, "step", details["step"])
			}
		}
		s.logg.Warn(logCtx, "auth.login.failed")
	}
	if pkgerrors.As(err) == nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "login failed")
	}
	return err
}

// Logout is idempotent: clearing cookies that are already gone is harmless.
func (s *service) Logout(ctx context.Context, jar *session.Jar) *LogoutResponse {
	jar.Logout()
	if s.logg != nil {
		s.logg.Info(ctx, "auth.logout")
	}
	return &LogoutResponse{Success: true}
}
