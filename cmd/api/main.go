package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/catalog-storefront/api/routes"
	"github.com/angelmondragon/catalog-storefront/internal/cart"
	"github.com/angelmondragon/catalog-storefront/internal/notifications"
	products "github.com/angelmondragon/catalog-storefront/internal/products"
	"github.com/angelmondragon/catalog-storefront/internal/querycache"
	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	"github.com/angelmondragon/catalog-storefront/pkg/config"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/metrics"
	"github.com/angelmondragon/catalog-storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	catalogMetrics := metrics.NewCatalogMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)

	var (
		redisClient *redis.Client
		pinger      redis.Pinger
		store       querycache.Store
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		pinger = redisClient
		store = redisClient
	} else {
		store = querycache.NewMemoryStore(cfg.Cache.MemoryMaxEntries, cfg.Cache.TTL)
	}

	clientOpts := []catalog.Option{
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithMetrics(catalogMetrics),
		catalog.WithLogger(logg),
		catalog.WithReadDedupe(cfg.Catalog.DedupeReads),
	}
	if cfg.Cache.Enabled {
		clientOpts = append(clientOpts, catalog.WithCache(querycache.New(store, cfg.Cache.TTL)))
	}
	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL, clientOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}

	cartStore := cart.NewStore(
		cart.WithFailFast(cfg.CartFailFast()),
		cart.WithMetrics(cartMetrics),
	)
	feed := notifications.NewFeed(cfg.Notifications.FeedSize, logg)

	productService, err := products.NewService(catalogClient, cartStore, feed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"catalog_url": cfg.Catalog.BaseURL,
		"redis":       redisClient != nil,
	})
	logg.Info(ctx, "starting storefront api")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, pinger, registry, productService, cartStore, feed),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "storefront api stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(ctx, "storefront api shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	if shutdownErr != nil {
		logg.Error(ctx, "storefront api shutdown incomplete", shutdownErr)
		os.Exit(1)
	}
}
