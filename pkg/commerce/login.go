package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
)

// Login steps, reported in error details and logs.
const (
	StepAuthenticate = "authenticate"
	StepUpgrade      = "upgrade_session"
	StepCSRF         = "csrf_token"
)

var (
	sidPattern  = regexp.MustCompile(`sid=([^;]+)`)
	csrfPattern = regexp.MustCompile(`return\s*("(?:[^"\\]|\\.)*")\s*;`)
)

type apexLoginRequest struct {
	Namespace      string          `json:"namespace"`
	ClassName      string          `json:"classname"`
	Method         string          `json:"method"`
	IsContinuation bool            `json:"isContinuation"`
	Params         apexLoginParams `json:"params"`
	Cacheable      bool            `json:"cacheable"`
}

type apexLoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	StartURL string `json:"startUrl"`
}

type apexResponse struct {
	ReturnValue json.RawMessage `json:"returnValue"`
}

func stepError(code pkgerrors.Code, step string, cause error, msg string) *pkgerrors.Error {
	return pkgerrors.Wrap(code, cause, msg).WithDetails(map[string]any{"step": step})
}

// Authenticate runs the apex login action and returns the frontdoor redirect
// URL carrying a short-lived sid.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(apexLoginRequest{
		Namespace: c.login.ApexNamespace,
		ClassName: c.login.ApexClass,
		Method:    c.login.ApexMethod,
		Params: apexLoginParams{
			Username: username,
			Password: password,
			StartURL: c.login.StartURL,
		},
	})
	if err != nil {
		return "", stepError(pkgerrors.CodeInternal, StepAuthenticate, err, "marshal login request")
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	resp, err := c.do(ctx, c.httpClient, "post.login.authenticate", http.MethodPost, c.endpoints.ApexExecute(), headers, bytes.NewReader(payload))
	if err != nil {
		return "", stepError(pkgerrors.CodeAuthentication, StepAuthenticate, err, "login request failed")
	}
	if !resp.OK() {
		return "", stepError(pkgerrors.CodeUnauthorized, StepAuthenticate,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(resp.Body, errorBodyLogLimit)), "invalid credentials")
	}

	redirect := redirectFromBody(resp.Body)
	if !strings.Contains(redirect, "sid=") {
		return "", stepError(pkgerrors.CodeAuthentication, StepAuthenticate,
			errors.New("no sid in login response"), "malformed login response")
	}
	return redirect, nil
}

// redirectFromBody accepts {"returnValue":"..."}, a bare JSON string, or plain text.
func redirectFromBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var wrapped apexResponse
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && len(wrapped.ReturnValue) > 0 {
		var s string
		if err := json.Unmarshal(wrapped.ReturnValue, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}

// UpgradeSession visits the redirect URL without following redirects and
// returns the long-lived sid set by the platform.
func (c *Client) UpgradeSession(ctx context.Context, redirectURL string) (string, error) {
	target, err := c.resolve(redirectURL)
	if err != nil {
		return "", stepError(pkgerrors.CodeSessionExchange, StepUpgrade, err, "invalid login redirect")
	}

	resp, err := c.do(ctx, c.loginClient, "get.login.upgrade", http.MethodGet, target, http.Header{}, nil)
	if err != nil {
		return "", stepError(pkgerrors.CodeSessionExchange, StepUpgrade, err, "session upgrade request failed")
	}

	sid := sidFromHeader(resp.Header)
	if sid == "" {
		return "", stepError(pkgerrors.CodeSessionExchange, StepUpgrade,
			fmt.Errorf("status %d without sid cookie", resp.StatusCode), "session upgrade returned no sid")
	}
	return sid, nil
}

func sidFromHeader(h http.Header) string {
	resp := http.Response{Header: h}
	for _, ck := range resp.Cookies() {
		if ck.Name == AuthTokenCookie && ck.Value != "" {
			return ck.Value
		}
	}
	for _, line := range h.Values("Set-Cookie") {
		if m := sidPattern.FindStringSubmatch(line); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// resolve makes relative frontdoor redirects absolute against the site URL.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(c.siteURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

// FetchCSRFToken loads the site's CSRF module with the upgraded sid and
// extracts the token from its `return "<token>";` statement.
func (c *Client) FetchCSRFToken(ctx context.Context, sid string) (string, error) {
	headers := http.Header{}
	headers.Set("Cookie", AuthTokenCookie+"="+sid)

	resp, err := c.do(ctx, c.httpClient, "get.login.csrf", http.MethodGet, c.endpoints.CSRFToken(c.login.CSRFTokenPath), headers, nil)
	if err != nil {
		return "", stepError(pkgerrors.CodeSessionExchange, StepCSRF, err, "csrf token request failed")
	}
	if !resp.OK() {
		return "", stepError(pkgerrors.CodeSessionExchange, StepCSRF,
			fmt.Errorf("status %d", resp.StatusCode), "csrf token request failed")
	}

	token, err := extractCSRFToken(resp.Body)
	if err != nil {
		return "", stepError(pkgerrors.CodeSessionExchange, StepCSRF, err, "csrf token not found")
	}
	return token, nil
}

func extractCSRFToken(body []byte) (string, error) {
	m := csrfPattern.FindSubmatch(body)
	if len(m) != 2 {
		return "", errors.New("no return statement in csrf module")
	}
	var token string
	if err := json.Unmarshal(m[1], &token); err != nil {
		return "", fmt.Errorf("unescape csrf token: %w", err)
	}
	if token == "" {
		return "", errors.New("empty csrf token")
	}
	return token, nil
}
