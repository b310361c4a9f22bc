package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/catalog-storefront/api/responses"
	"github.com/angelmondragon/catalog-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the query cache backend when one is configured.
func HealthReady(cfg *config.Config, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
