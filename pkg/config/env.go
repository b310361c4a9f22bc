package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv               = "STOREFRONT_APP_ENV"
	EnvPort                 = "STOREFRONT_APP_PORT"
	EnvLogLevel             = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat            = "STOREFRONT_LOG_FORMAT"
	EnvCatalogBaseURL       = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogTimeout       = "STOREFRONT_CATALOG_TIMEOUT"
	EnvRedisURL             = "STOREFRONT_REDIS_URL"
	EnvCacheTTL             = "STOREFRONT_CACHE_TTL"
	EnvCORSAllowedOrigins   = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvCartFailFast         = "STOREFRONT_CART_FAIL_FAST"
	EnvNotificationFeedSize = "STOREFRONT_NOTIFICATION_FEED_SIZE"
)
