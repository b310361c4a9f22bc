package controllers

import (
	"net/http"

	"github.com/angelmondragon/catalog-storefront/api/responses"
	"github.com/angelmondragon/catalog-storefront/api/validators"
	"github.com/angelmondragon/catalog-storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationFeed exposes the most recent toasts.
type NotificationFeed interface {
	Recent(limit int) []notifications.Notification
}

// ListNotifications returns recent notifications, newest first.
func ListNotifications(feed NotificationFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultNotificationLimit, 1, maxNotificationLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": feed.Recent(limit)})
	}
}
