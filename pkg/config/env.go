package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	StaleAuthAlways = "always"
	StaleAuthRoutes = "routes"
	StaleAuthNever  = "never"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvSiteURL         = "SFDC_COMMERCE_WEBSTORE_SITE_URL"
	EnvAPIVersion      = "SFDC_COMMERCE_API_VERSION"
	EnvWebstoreID      = "SFDC_COMMERCE_WEBSTORE_ID"
	EnvWebstoreName    = "SFDC_COMMERCE_WEBSTORE_NAME"
	EnvSiteID          = "SFDC_COMMERCE_WEBSTORE_SITE_ID"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvStaleAuthPolicy = "STOREFRONT_STALE_AUTH_POLICY"
	EnvCookieSecure    = "STOREFRONT_COOKIE_SECURE"
	EnvCategoryTTL     = "STOREFRONT_CATEGORY_CACHE_TTL"
)
