package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Commerce      CommerceConfig
	Login         LoginConfig
	Cookies       CookieConfig
	Session       SessionConfig
	Catalog       CatalogConfig
	Redis         RedisConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Warmer        WarmerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CommerceConfig points the service at a single Commerce webstore.
type CommerceConfig struct {
	SiteURL        string        `envconfig:"SFDC_COMMERCE_WEBSTORE_SITE_URL" required:"true"`
	APIVersion     string        `envconfig:"SFDC_COMMERCE_API_VERSION" required:"true"`
	WebstoreID     string        `envconfig:"SFDC_COMMERCE_WEBSTORE_ID" required:"true"`
	WebstoreName   string        `envconfig:"SFDC_COMMERCE_WEBSTORE_NAME" required:"true"`
	SiteID         string        `envconfig:"SFDC_COMMERCE_WEBSTORE_SITE_ID" required:"true"`
	ConsumerKey    string        `envconfig:"SALESFORCE_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"SALESFORCE_CONSUMER_SECRET"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"15s"`
}

// WebruntimeURL is the LWR runtime root of the site (https://host/site/webruntime).
func (c CommerceConfig) WebruntimeURL() string {
	return strings.TrimRight(c.SiteURL, "/") + "/webruntime"
}

// WebstoresURL is the Connect REST root for webstore resources.
func (c CommerceConfig) WebstoresURL() string {
	return fmt.Sprintf("%s/api/services/data/%s/commerce/webstores", c.WebruntimeURL(), c.APIVersion)
}

func (c CommerceConfig) validate() error {
	if strings.ContainsAny(c.SiteURL, "[]") {
		return fmt.Errorf("%s must not contain brackets", EnvSiteURL)
	}
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvSiteURL)
	}
	return nil
}

// LoginConfig describes the apex action used for the first step of the credential exchange.
type LoginConfig struct {
	ApexNamespace string `envconfig:"STOREFRONT_LOGIN_APEX_NAMESPACE" default:""`
	ApexClass     string `envconfig:"STOREFRONT_LOGIN_APEX_CLASS" default:"CommerceLoginController"`
	ApexMethod    string `envconfig:"STOREFRONT_LOGIN_APEX_METHOD" default:"login"`
	StartURL      string `envconfig:"STOREFRONT_LOGIN_START_URL" default:"/"`
	CSRFTokenPath string `envconfig:"STOREFRONT_LOGIN_CSRF_PATH" default:"/module/@app/csrfToken"`
}

type CookieConfig struct {
	Domain string `envconfig:"STOREFRONT_COOKIE_DOMAIN"`
	// Secure overrides the production-derived default when set.
	Secure *bool `envconfig:"STOREFRONT_COOKIE_SECURE"`
}

// SecureFor reports whether cookies should carry the Secure attribute in the given app env.
func (c CookieConfig) SecureFor(app AppConfig) bool {
	if c.Secure != nil {
		return *c.Secure
	}
	return app.IsProd()
}

type SessionConfig struct {
	StaleAuthPolicy string   `envconfig:"STOREFRONT_STALE_AUTH_POLICY" default:"always"`
	StaleAuthRoutes []string `envconfig:"STOREFRONT_STALE_AUTH_ROUTES" default:"/,/product/*"`
	GateRoutes      []string `envconfig:"STOREFRONT_GATE_ROUTES" default:"/,/product/*,/search/*,/cart*,/api/*"`
	GateSkipRoutes  []string `envconfig:"STOREFRONT_GATE_SKIP_ROUTES" default:"/api/auth/*"`
	RequireLogin    bool     `envconfig:"STOREFRONT_REQUIRE_LOGIN" default:"false"`
	LoginPath       string   `envconfig:"STOREFRONT_LOGIN_PATH" default:"/login"`
	CSRFForGuests   bool     `envconfig:"STOREFRONT_CSRF_FOR_GUESTS" default:"false"`
}

func (s SessionConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.StaleAuthPolicy)) {
	case StaleAuthAlways, StaleAuthRoutes, StaleAuthNever:
		return nil
	}
	return fmt.Errorf("%s must be one of %s, %s, %s", EnvStaleAuthPolicy, StaleAuthAlways, StaleAuthRoutes, StaleAuthNever)
}

type CatalogConfig struct {
	CategoryCacheTTL  time.Duration `envconfig:"STOREFRONT_CATEGORY_CACHE_TTL" default:"5m"`
	FeaturedMaxItems  int           `envconfig:"STOREFRONT_FEATURED_MAX_PRODUCTS" default:"3"`
	CategoryPageSize  int           `envconfig:"STOREFRONT_CATEGORY_PAGE_SIZE" default:"3"`
	FanOutConcurrency int           `envconfig:"STOREFRONT_FANOUT_CONCURRENCY" default:"8"`
}

// RedisConfig is optional; without a URL or address the service runs on in-memory state.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

// WarmerConfig drives cmd/cache-warmer. Cookie is a raw Cookie header used to
// warm the catalog as a specific shopper; empty warms it as a guest.
type WarmerConfig struct {
	Interval time.Duration `envconfig:"STOREFRONT_WARMER_INTERVAL" default:"4m"`
	Cookie   string        `envconfig:"STOREFRONT_WARMER_COOKIE"`
}
