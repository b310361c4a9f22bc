package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/catalog-storefront/api/controllers"
	"github.com/angelmondragon/catalog-storefront/api/middleware"
	products "github.com/angelmondragon/catalog-storefront/internal/products"
	"github.com/angelmondragon/catalog-storefront/pkg/config"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cachePinger redis.Pinger,
	gatherer prometheus.Gatherer,
	productService products.Service,
	cartStore controllers.CartStore,
	notificationFeed controllers.NotificationFeed,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, cachePinger, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/categories", controllers.ListCategories(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Put("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartStore, logg))
			r.Post("/items", controllers.AddCartItem(productService, logg))
			r.Delete("/items/{index}", controllers.RemoveCartItem(cartStore, logg))
			r.Patch("/items/{index}", controllers.ChangeCartItemQuantity(cartStore, logg))
			r.Post("/drawer/toggle", controllers.ToggleCartDrawer(cartStore, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(notificationFeed, logg))
	})

	return r
}
