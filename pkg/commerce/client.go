package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forcedotcom/commerce-vercel/pkg/config"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/metrics"
)

const (
	defaultTimeout          = 15 * time.Second
	responseBodyLimit int64 = 4 << 20
	errorBodyLogLimit       = 512
)

// Client calls the commerce platform on behalf of a Session.
type Client struct {
	httpClient  *http.Client
	loginClient *http.Client
	endpoints   Endpoints
	siteURL     string
	login       config.LoginConfig
	policy      HeaderPolicy
	metrics     *metrics.CommerceMetrics
	logg        *logger.Logger
	guestCart   *regexp.Regexp
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithMetrics(m *metrics.CommerceMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) { c.logg = logg }
}

// WithCSRFForGuests lets guests send the CSRF header on cart-item mutations.
func WithCSRFForGuests(enabled bool) Option {
	return func(c *Client) { c.policy.CSRFForGuests = enabled }
}

// NewClient builds a client for the configured webstore.
func NewClient(cfg config.CommerceConfig, login config.LoginConfig, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoints:  NewEndpoints(cfg),
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		login:      login,
		policy: HeaderPolicy{
			SiteID:     cfg.SiteID,
			WebstoreID: cfg.WebstoreID,
		},
		guestCart: regexp.MustCompile(regexp.QuoteMeta(GuestCartSessionCookie(cfg.WebstoreID)) + `=([^;]+)`),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	// The login flow reads Set-Cookie off the redirect itself, so it never follows one.
	loginClient := *c.httpClient
	loginClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.loginClient = &loginClient
	return c
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Response is a fully read platform response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response")
	}
	return nil
}

// Call sends one API request with the session's cookies and CSRF header.
// A non-2xx status returns both the response and a dependency error so callers
// can inspect the status.
func (c *Client) Call(ctx context.Context, sess Session, method, endpoint string, body any) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if sess == nil {
		sess = Anonymous
	}
	creds := sess.Credentials(ctx)
	headers := ComposeHeaders(method, endpoint, creds, c.policy)
	target := WithGuestFlag(endpoint, creds.IsGuest)
	op := operationFor(method, endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal commerce request")
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := c.do(ctx, c.httpClient, op, method, target, headers, reader)
	if err != nil {
		return nil, err
	}

	if strings.Contains(endpointPath(endpoint), "carts") {
		if id := c.guestCartSessionID(resp.Header); id != "" {
			sess.SetGuestCartSessionID(id)
		}
	}

	if !resp.OK() {
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"operation": op,
				"status":    resp.StatusCode,
				"body":      truncate(resp.Body, errorBodyLogLimit),
			})
			c.logg.Warn(logCtx, "commerce.request.failed")
		}
		return resp, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s returned status %d", op, resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode, "operation": op})
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, op, method, target string, headers http.Header, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build commerce request")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.metrics.Observe(op, 0, time.Since(start))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute commerce request").
			WithDetails(map[string]any{"operation": op})
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	c.metrics.Observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read commerce response").
			WithDetails(map[string]any{"operation": op})
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) guestCartSessionID(h http.Header) string {
	for _, line := range h.Values("Set-Cookie") {
		if m := c.guestCart.FindStringSubmatch(line); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// operationFor keeps metric labels bounded by dropping ids from the endpoint.
func operationFor(method, endpoint string) string {
	path := endpointPath(endpoint)
	var name string
	switch {
	case strings.Contains(path, "/session-context"):
		name = "session.context"
	case strings.Contains(path, "/product-categories"):
		name = "catalog.categories"
	case strings.Contains(path, "/search/products"):
		name = "catalog.search"
	case strings.Contains(path, "/pricing/products"):
		name = "catalog.pricing"
	case strings.Contains(path, "/products/"):
		name = "catalog.product"
	case strings.Contains(path, "/cart-items"):
		name = "cart.items"
	case strings.Contains(path, "/carts"):
		name = "cart.current"
	default:
		name = "other"
	}
	return strings.ToLower(method) + "." + name
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
