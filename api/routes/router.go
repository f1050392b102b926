package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jirivrbic-boss/extroworld/api/controllers"
	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/internal/cart"
	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/loyalty"
	"github.com/jirivrbic-boss/extroworld/internal/newsletter"
	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/internal/payments"
	"github.com/jirivrbic-boss/extroworld/internal/shipments"
	"github.com/jirivrbic-boss/extroworld/internal/shipping"
	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
	"github.com/jirivrbic-boss/extroworld/internal/users"
	"github.com/jirivrbic-boss/extroworld/internal/wishlist"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	pkgredis "github.com/jirivrbic-boss/extroworld/pkg/redis"
	"github.com/jirivrbic-boss/extroworld/pkg/telemetry"
)

const (
	newsletterWindow     = time.Hour
	newsletterIPLimit    = 20
	newsletterEmailLimit = 3
	checkoutWindow       = time.Minute
	checkoutIPLimit      = 30
)

type webhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// Deps carries everything the router mounts. Nil pingers are skipped by
// readiness; nil services answer 500 on their routes.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger

	RateLimits  middleware.RateLimitStore
	Idempotency pkgredis.IdempotencyStore
	Metrics     http.Handler

	Catalog    catalog.Service
	Shipping   shipping.Service
	Cart       cart.Service
	Discounts  discounts.Resolver
	Payments   payments.Service
	Orders     orders.Service
	Users      users.Service
	Loyalty    loyalty.Service
	Wishlist   wishlist.Service
	Newsletter newsletter.Service
	Shipments  shipments.Service
	Admin      admin.Service
	Lock       *sitelock.Gate
	Webhook    webhookHandler
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		telemetry.RouteTag,
		middleware.CORS(cfg.App.AllowedOrigins),
	)
	if d.Lock != nil {
		r.Use(middleware.SiteLock(d.Lock))
	}

	newsletterPolicy := middleware.NewRateLimitPolicy("newsletter", newsletterWindow, newsletterIPLimit, newsletterEmailLimit)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", checkoutWindow, checkoutIPLimit, 0)
	limiter := d.RateLimits

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}, logg))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.Idempotency, logg))

		// public
		r.Get("/products", controllers.ProductsList(d.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.Catalog, logg))
		r.Get("/shipping/rate", controllers.ShippingRate(d.Shipping, logg))
		r.With(rateLimit(newsletterPolicy, limiter, logg)).Post("/newsletter", controllers.NewsletterSubscribe(d.Newsletter, logg))
		if d.Lock != nil {
			r.Get("/lock/status", controllers.LockStatus(d.Lock))
			r.Post("/lock/unlock", controllers.LockUnlock(d.Lock, cfg.Admin.SecureCookies, logg))
		}
		r.Post("/webhooks/stripe", controllers.StripeWebhook(d.Webhook, logg))

		// customer
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Patch("/items", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items", controllers.CartRemoveItem(d.Cart, logg))
				r.Put("/shipping", controllers.CartSetShipping(d.Cart, logg))
				r.Post("/discount", controllers.CartApplyDiscount(d.Cart, d.Discounts, logg))
				r.Delete("/discount", controllers.CartRemoveDiscount(d.Cart, logg))
			})

			r.Post("/checkout/discount", controllers.CheckoutDiscount(d.Discounts, logg))
			r.With(rateLimit(checkoutPolicy, limiter, logg)).Post("/checkout/intent", controllers.CheckoutIntent(d.Payments, logg))

			r.Post("/orders", controllers.OrdersPlace(d.Orders, logg))
			r.Get("/orders", controllers.OrdersList(d.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(d.Orders, logg))

			r.Get("/account", controllers.AccountGet(d.Users, d.Loyalty, d.Orders, logg))

			r.Get("/wishlist", controllers.WishlistIDs(d.Wishlist, logg))
			r.Get("/wishlist/{productId}", controllers.WishlistStatus(d.Wishlist, logg))
			r.Put("/wishlist/{productId}", controllers.WishlistAddItem(d.Wishlist, logg))
			r.Delete("/wishlist/{productId}", controllers.WishlistRemoveItem(d.Wishlist, logg))
		})

		// back office
		if d.Admin == nil {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", controllers.AdminLogin(d.Admin, cfg.Admin.SecureCookies, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminSession(d.Admin, logg))

				r.Post("/logout", controllers.AdminLogout(d.Admin, cfg.Admin.SecureCookies, logg))
				r.Get("/stats", controllers.AdminStats(d.Admin, logg))
				r.Post("/promo-codes", controllers.AdminCreatePromo(d.Admin, logg))

				r.Get("/orders", controllers.AdminOrdersList(d.Orders, logg))
				r.Post("/orders/seed", controllers.AdminSeedOrder(d.Orders, logg))
				r.Patch("/orders/{orderId}/status", controllers.AdminOrderSetStatus(d.Orders, logg))
				r.Post("/orders/{orderId}/shipment", controllers.AdminOrderShip(d.Shipments, logg))

				r.Get("/users", controllers.AdminUsersList(d.Users, logg))
				r.Patch("/users/{userId}/points", controllers.AdminUserAdjustPoints(d.Users, logg))

				r.Get("/loyalty-codes", controllers.AdminLoyaltyList(d.Loyalty, logg))
				r.Post("/loyalty-codes", controllers.AdminLoyaltyGenerate(d.Loyalty, logg))
				r.Patch("/loyalty-codes/{codeId}", controllers.AdminLoyaltySetUsed(d.Loyalty, logg))

				r.Get("/newsletter", controllers.AdminNewsletterList(d.Newsletter, logg))
				r.Post("/catalog/sync", controllers.AdminCatalogSync(d.Catalog, logg))
			})
		})
	})

	if dir := cfg.App.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}

func rateLimit(policy middleware.RateLimitPolicy, store middleware.RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(policy, store, logg)
}
