package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
)

type vendorStub struct {
	apexStatus int
	apexBody   string
	upgradeSID string
	csrfStatus int
	csrfBody   string

	gotLogin   apexLoginRequest
	gotCSRFSID string
}

func (v *vendorStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/site/webruntime/api/apex/execute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&v.gotLogin))
		w.WriteHeader(v.apexStatus)
		_, _ = w.Write([]byte(v.apexBody))
	})
	mux.HandleFunc("/site/frontdoor.jsp", func(w http.ResponseWriter, r *http.Request) {
		if v.upgradeSID != "" {
			w.Header().Add("Set-Cookie", "sid="+v.upgradeSID+"; Path=/; Secure; HttpOnly")
		}
		w.Header().Add("Set-Cookie", "oid=00D1; Path=/")
		http.Redirect(w, r, "/site/home", http.StatusFound)
	})
	mux.HandleFunc("/site/home", func(w http.ResponseWriter, r *http.Request) {
		t.Error("redirect should not be followed")
	})
	mux.HandleFunc("/site/webruntime/module/@app/csrfToken", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("sid"); err == nil {
			v.gotCSRFSID = ck.Value
		}
		w.WriteHeader(v.csrfStatus)
		_, _ = w.Write([]byte(v.csrfBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStub() *vendorStub {
	return &vendorStub{
		apexStatus: http.StatusOK,
		apexBody:   `{"returnValue":"frontdoor.jsp?sid=XYZ"}`,
		upgradeSID: "LONGSID",
		csrfStatus: http.StatusOK,
		csrfBody:   `define("@app/csrfToken",[],function(){ return "TOKEN123="; });`,
	}
}

func runExchange(t *testing.T, client *Client) (string, string, error) {
	t.Helper()
	ctx := context.Background()
	redirect, err := client.Authenticate(ctx, "buyer@example.com", "secret")
	if err != nil {
		return "", "", err
	}
	sid, err := client.UpgradeSession(ctx, redirect)
	if err != nil {
		return "", "", err
	}
	token, err := client.FetchCSRFToken(ctx, sid)
	return sid, token, err
}

func stepOf(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	details, _ := typed.Details().(map[string]any)
	step, _ := details["step"].(string)
	return step
}

func TestLoginExchangeHappyPath(t *testing.T) {
	stub := newStub()
	srv := stub.server(t)
	client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

	sid, token, err := runExchange(t, client)
	require.NoError(t, err)
	assert.Equal(t, "LONGSID", sid)
	assert.Equal(t, "TOKEN123=", token)
	assert.Equal(t, "LONGSID", stub.gotCSRFSID)

	assert.Equal(t, "CommerceLoginController", stub.gotLogin.ClassName)
	assert.Equal(t, "login", stub.gotLogin.Method)
	assert.Equal(t, "buyer@example.com", stub.gotLogin.Params.Username)
	assert.Equal(t, "/", stub.gotLogin.Params.StartURL)
	assert.False(t, stub.gotLogin.IsContinuation)
	assert.False(t, stub.gotLogin.Cacheable)
}

func TestAuthenticateAcceptsBareStringBody(t *testing.T) {
	stub := newStub()
	stub.apexBody = `"frontdoor.jsp?sid=XYZ"`
	srv := stub.server(t)
	client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

	redirect, err := client.Authenticate(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.Equal(t, "frontdoor.jsp?sid=XYZ", redirect)
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	stub := newStub()
	stub.apexStatus = http.StatusBadRequest
	stub.apexBody = `[{"message":"invalid"}]`
	srv := stub.server(t)
	client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

	_, _, err := runExchange(t, client)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, StepAuthenticate, stepOf(err))
}

func TestAuthenticateMalformedResponse(t *testing.T) {
	stub := newStub()
	stub.apexBody = `{"returnValue":"https://example.com/no-session"}`
	srv := stub.server(t)
	client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

	_, _, err := runExchange(t, client)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthentication))
}

func TestUpgradeSessionWithoutSid(t *testing.T) {
	stub := newStub()
	stub.upgradeSID = ""
	srv := stub.server(t)
	client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

	_, _, err := runExchange(t, client)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionExchange))
	assert.Equal(t, StepUpgrade, stepOf(err))
}

func TestFetchCSRFTokenFailures(t *testing.T) {
	t.Run("no return statement", func(t *testing.T) {
		stub := newStub()
		stub.csrfBody = `define([], function(){ var x = 1; });`
		srv := stub.server(t)
		client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

		_, _, err := runExchange(t, client)
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeSessionExchange))
		assert.Equal(t, StepCSRF, stepOf(err))
	})

	t.Run("non-2xx", func(t *testing.T) {
		stub := newStub()
		stub.csrfStatus = http.StatusForbidden
		srv := stub.server(t)
		client := NewClient(testCommerceConfig(srv.URL+"/site"), testLoginConfig())

		_, _, err := runExchange(t, client)
		require.Error(t, err)
		assert.Equal(t, StepCSRF, stepOf(err))
	})
}

func TestExtractCSRFTokenUnescapes(t *testing.T) {
	token, err := extractCSRFToken([]byte(`return "a\"b=c";`))
	require.NoError(t, err)
	assert.Equal(t, `a"b=c`, token)
}

func TestSidFromHeaderFallsBackToPattern(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "broken cookie sid=RAW123; Path=/")
	assert.Equal(t, "RAW123", sidFromHeader(h))
}
