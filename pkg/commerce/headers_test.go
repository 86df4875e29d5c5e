package commerce

import (
	"net/http"
	"testing"
)

var testPolicy = HeaderPolicy{SiteID: "0DM1", WebstoreID: "0ZE1"}

const cartItemsURL = "https://shop.example.com/site/webruntime/api/services/data/v63.0/commerce/webstores/0ZE1/carts/current/cart-items"

func TestComposeHeadersAuthenticated(t *testing.T) {
	creds := Credentials{AuthToken: "tok", CSRFToken: "csrf=="}

	get := ComposeHeaders(http.MethodGet, cartItemsURL, creds, testPolicy)
	if got := get.Get("Cookie"); got != "sid=tok" {
		t.Fatalf("expected sid cookie, got %q", got)
	}
	if get.Get(CSRFHeader) != "" {
		t.Fatal("expected no csrf header on GET")
	}
	if get.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", get.Get("Content-Type"))
	}

	for _, method := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete} {
		h := ComposeHeaders(method, cartItemsURL+"/0a9", creds, testPolicy)
		if h.Get(CSRFHeader) != "csrf==" {
			t.Fatalf("%s: expected csrf header, got %q", method, h.Get(CSRFHeader))
		}
	}

	put := ComposeHeaders(http.MethodPut, "https://shop.example.com/webstores/0ZE1/carts/current", creds, testPolicy)
	if put.Get(CSRFHeader) != "" {
		t.Fatal("expected no csrf header outside cart-items")
	}
}

func TestComposeHeadersAuthenticatedWithoutToken(t *testing.T) {
	h := ComposeHeaders(http.MethodGet, cartItemsURL, Credentials{}, testPolicy)
	if h.Get("Cookie") != "" {
		t.Fatalf("expected no cookie header, got %q", h.Get("Cookie"))
	}
}

func TestComposeHeadersGuestCart(t *testing.T) {
	creds := Credentials{IsGuest: true, AuthToken: "stale", CSRFToken: "csrf", GuestUUID: "u-1", GuestCartSessionID: "g-1"}

	h := ComposeHeaders(http.MethodPost, cartItemsURL, creds, testPolicy)
	want := "guest_uuid_essential_0DM1=u-1; GuestCartSessionId_0ZE1=g-1"
	if got := h.Get("Cookie"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if h.Get(CSRFHeader) != "" {
		t.Fatal("expected guests to send no csrf header by default")
	}

	withCSRF := ComposeHeaders(http.MethodPost, cartItemsURL, creds, HeaderPolicy{SiteID: "0DM1", WebstoreID: "0ZE1", CSRFForGuests: true})
	if withCSRF.Get(CSRFHeader) != "csrf" {
		t.Fatal("expected csrf header when enabled for guests")
	}
}

func TestComposeHeadersGuestNonCart(t *testing.T) {
	creds := Credentials{IsGuest: true, GuestUUID: "u-1"}
	h := ComposeHeaders(http.MethodGet, "https://shop.example.com/webstores/0ZE1/product-categories/children", creds, testPolicy)
	if h.Get("Cookie") != "" {
		t.Fatalf("expected no cookies outside cart calls, got %q", h.Get("Cookie"))
	}
}

func TestWithGuestFlag(t *testing.T) {
	cases := []struct {
		in      string
		isGuest bool
		want    string
	}{
		{"https://x.test/a", true, "https://x.test/a?isGuest=true"},
		{"https://x.test/a?categoryId=1&pageSize=3", false, "https://x.test/a?categoryId=1&pageSize=3&isGuest=false"},
		{"https://x.test/pricing/products?productIds=a,b", true, "https://x.test/pricing/products?productIds=a,b&isGuest=true"},
	}
	for _, tc := range cases {
		if got := WithGuestFlag(tc.in, tc.isGuest); got != tc.want {
			t.Fatalf("WithGuestFlag(%q, %v) = %q, want %q", tc.in, tc.isGuest, got, tc.want)
		}
	}
}

func TestEndpoints(t *testing.T) {
	e := NewEndpoints(testCommerceConfig("https://shop.example.com/site/"))
	root := "https://shop.example.com/site/webruntime/api/services/data/v63.0/commerce/webstores/0ZE1"

	checks := []struct{ got, want string }{
		{e.SessionContext(), root + "/session-context"},
		{e.ParentCategories(), root + "/product-categories/children"},
		{e.ChildCategories("0ZG1"), root + "/product-categories/children?parentProductCategoryId=0ZG1"},
		{e.CategoryProducts("0ZG1", 3), root + "/search/products?categoryId=0ZG1&pageSize=3"},
		{e.Pricing([]string{"01t1", "01t2"}), root + "/pricing/products?productIds=01t1,01t2"},
		{e.Product("01t1"), root + "/products/01t1"},
		{e.CartItem("0a91"), root + "/carts/current/cart-items/0a91"},
		{e.ApexExecute(), "https://shop.example.com/site/webruntime/api/apex/execute"},
		{e.CSRFToken("/module/@app/csrfToken"), "https://shop.example.com/site/webruntime/module/@app/csrfToken"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("expected %q, got %q", c.want, c.got)
		}
	}
}
