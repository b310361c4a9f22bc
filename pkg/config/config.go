package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	Catalog       CatalogConfig
	Redis         RedisConfig
	Cache         CacheConfig
	CORS          CORSConfig
	Cart          CartConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	if strings.TrimSpace(c.App.Port) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	switch strings.ToLower(strings.TrimSpace(c.App.LogFormat)) {
	case "", "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.App.LogFormat))
	}
	if err := c.Catalog.validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive when caching is enabled", EnvCacheTTL))
	}
	if c.Notifications.FeedSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvNotificationFeedSize))
	}
	return errs
}

// CartFailFast reports whether invalid cart indexes should panic instead of
// returning an error. Development environments always fail fast.
func (c *Config) CartFailFast() bool {
	return c.Cart.FailFast || c.App.IsDev()
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CatalogConfig struct {
	BaseURL     string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" required:"true"`
	Timeout     time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
	DedupeReads bool          `envconfig:"STOREFRONT_CATALOG_DEDUPE_READS" default:"true"`
}

func (c CatalogConfig) validate() error {
	var errs error
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = multierr.Append(errs, fmt.Errorf("%s must be an absolute http(s) url, got %q", EnvCatalogBaseURL, c.BaseURL))
	}
	if c.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvCatalogTimeout))
	}
	return errs
}

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

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CacheConfig struct {
	Enabled          bool          `envconfig:"STOREFRONT_CACHE_ENABLED" default:"true"`
	TTL              time.Duration `envconfig:"STOREFRONT_CACHE_TTL" default:"30s"`
	MemoryMaxEntries int           `envconfig:"STOREFRONT_CACHE_MEMORY_MAX_ENTRIES" default:"512"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CartConfig struct {
	FailFast bool `envconfig:"STOREFRONT_CART_FAIL_FAST" default:"false"`
}

type NotificationsConfig struct {
	FeedSize int `envconfig:"STOREFRONT_NOTIFICATION_FEED_SIZE" default:"50"`
}
