package controllers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcedotcom/commerce-vercel/internal/auth"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	"github.com/forcedotcom/commerce-vercel/pkg/cookies"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

var testNames = session.NamesFor(config.CommerceConfig{SiteID: "0DM1", WebstoreID: "0ZE1"})

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

// withJar binds a request-scoped jar the way the session gate does.
func withJar(w http.ResponseWriter, req *http.Request) *http.Request {
	jar := session.NewJar(cookies.FromRequest(w, req, cookies.Policy{Secure: true}), testNames, req.Header)
	return req.WithContext(session.WithJar(req.Context(), jar))
}

type fakeVendor struct {
	apexBody string
	csrfBody string
}

func (v fakeVendor) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/site/webruntime/api/apex/execute", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(v.apexBody))
	})
	mux.HandleFunc("/site/frontdoor.jsp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "sid=LONGSID; Path=/; Secure; HttpOnly")
		http.Redirect(w, r, "/site/home", http.StatusFound)
	})
	mux.HandleFunc("/site/webruntime/module/@app/csrfToken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(v.csrfBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAuthService(t *testing.T, vendor fakeVendor) auth.Service {
	t.Helper()
	srv := vendor.server(t)
	client := commerce.NewClient(
		config.CommerceConfig{
			SiteURL:        srv.URL + "/site",
			APIVersion:     "v63.0",
			WebstoreID:     "0ZE1",
			SiteID:         "0DM1",
			RequestTimeout: 5 * time.Second,
		},
		config.LoginConfig{ApexClass: "CommerceLoginController", ApexMethod: "login", StartURL: "/", CSRFTokenPath: "/module/@app/csrfToken"},
		commerce.WithHTTPClient(srv.Client()),
	)
	svc, err := auth.NewService(auth.ServiceParams{Exchanger: client, Logger: discardLogger()})
	require.NoError(t, err)
	return svc
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestAuthLoginSetsSessionCookies(t *testing.T) {
	svc := newAuthService(t, fakeVendor{
		apexBody: `{"returnValue":"frontdoor.jsp?sid=XYZ"}`,
		csrfBody: `define("@app/csrfToken",[],function(){ return "TOKEN123"; });`,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"buyer@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	AuthLogin(svc, discardLogger()).ServeHTTP(rec, withJar(rec, req))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "false", rec.Header().Get(session.HeaderGuestUser))
	assert.JSONEq(t, `{"data":{"isGuestUser":false}}`, rec.Body.String())

	set := cookieMap(rec)
	require.Contains(t, set, "sid")
	assert.Equal(t, "LONGSID", set["sid"].Value)
	assert.True(t, set["sid"].HttpOnly)
	assert.True(t, set["sid"].Secure)
	require.Contains(t, set, "csrf-token")
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("TOKEN123")), set["csrf-token"].Value)
	assert.False(t, set["csrf-token"].HttpOnly)
	require.Contains(t, set, "isGuestUser")
	assert.Equal(t, "false", set["isGuestUser"].Value)
}

func TestAuthLoginMalformedVendorResponseSetsNoCookies(t *testing.T) {
	svc := newAuthService(t, fakeVendor{
		apexBody: `{"returnValue":"https://shop.example.com/error"}`,
		csrfBody: `return "TOKEN123";`,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"buyer@example.com","password":"secret"}`))
	AuthLogin(svc, discardLogger()).ServeHTTP(rec, withJar(rec, req))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "AUTHENTICATION_FAILED", envelope.Error.Code)
	assert.Equal(t, "login failed", envelope.Error.Message)
}

func TestAuthLoginRejectsMissingPassword(t *testing.T) {
	svc := newAuthService(t, fakeVendor{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"buyer@example.com"}`))
	AuthLogin(svc, discardLogger()).ServeHTTP(rec, withJar(rec, req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthLogoutIsIdempotent(t *testing.T) {
	svc := newAuthService(t, fakeVendor{})
	handler := AuthLogout(svc, discardLogger())

	for _, cookie := range []string{"sid=LONGSID; csrf-token=VE9LRU4xMjM=; cartId=0a61; isGuestUser=false", ""} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		if cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
		handler.ServeHTTP(rec, withJar(rec, req))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"success":true}}`, rec.Body.String())
		assert.Equal(t, "true", rec.Header().Get(session.HeaderGuestUser))

		set := cookieMap(rec)
		for _, name := range []string{"sid", "csrf-token", "cartId"} {
			require.Contains(t, set, name)
			assert.Equal(t, -1, set[name].MaxAge, name)
		}
		require.Contains(t, set, "isGuestUser")
		assert.Equal(t, "true", set["isGuestUser"].Value)
	}
}
