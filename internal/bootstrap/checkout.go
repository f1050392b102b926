// Package bootstrap builds the checkout service graph shared by the api and
// the cron worker.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jirivrbic-boss/extroworld/internal/cart"
	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/loyalty"
	"github.com/jirivrbic-boss/extroworld/internal/orders"
	"github.com/jirivrbic-boss/extroworld/internal/payments"
	"github.com/jirivrbic-boss/extroworld/internal/pricing"
	"github.com/jirivrbic-boss/extroworld/internal/shipping"
	"github.com/jirivrbic-boss/extroworld/internal/users"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/metrics"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/redis"
	pkgstripe "github.com/jirivrbic-boss/extroworld/pkg/stripe"
	"github.com/jirivrbic-boss/extroworld/pkg/telemetry"
)

const stripeTimeout = 20 * time.Second

// Params carries the bootstrapped infrastructure.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry prometheus.Registerer
}

// Checkout is the wired checkout graph: catalog and pricing in front of the
// payment processor, the cart, the loyalty ledger and order placement.
type Checkout struct {
	Stripe    *pkgstripe.Client
	Outbox    *outbox.Service
	Metrics   *metrics.CheckoutMetrics
	Catalog   catalog.Service
	Shipping  shipping.Service
	Cart      cart.Service
	Discounts discounts.Resolver
	Payments  payments.Service
	Users     users.Service
	UsersRepo users.Repository
	Loyalty   loyalty.Service
	Codes     loyalty.Repository
	Orders    orders.Service
}

// NewCheckout constructs the checkout graph.
func NewCheckout(ctx context.Context, p Params) (*Checkout, error) {
	cfg := p.Config
	logg := p.Logger
	conn := p.DB.DB()

	registry := p.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, telemetry.HTTPClient(stripeTimeout), logg)
	if err != nil {
		return nil, fmt.Errorf("stripe client: %w", err)
	}

	out := &Checkout{
		Stripe:    stripeClient,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:   metrics.NewCheckoutMetrics(registry),
		UsersRepo: users.NewRepository(conn),
		Codes:     loyalty.NewRepository(conn),
	}

	out.Catalog, err = catalog.NewService(catalog.ServiceParams{
		Stripe:   stripeClient,
		Currency: cfg.Checkout.Currency,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	out.Shipping, err = shipping.NewService(shipping.ServiceParams{
		Rates:         stripeClient,
		Currency:      cfg.Checkout.Currency,
		PickupRateID:  cfg.Stripe.PickupRateID,
		AddressRateID: cfg.Stripe.AddressRateID,
		Logger:        logg,
	})
	if err != nil {
		return nil, fmt.Errorf("shipping service: %w", err)
	}

	cartStore, err := cart.NewRedisStore(p.Redis, cfg.Redis.CartTTL)
	if err != nil {
		return nil, fmt.Errorf("cart store: %w", err)
	}
	out.Cart, err = cart.NewService(cartStore, logg)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	out.Loyalty, err = loyalty.NewService(loyalty.ServiceParams{
		Repo:       out.Codes,
		Tx:         p.DB,
		Outbox:     out.Outbox,
		CodePrefix: cfg.Loyalty.CodePrefix,
		Metrics:    out.Metrics,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("loyalty service: %w", err)
	}

	out.Discounts, err = discounts.NewResolver(discounts.ResolverParams{
		MasterCode: cfg.Checkout.MasterCode,
		Loyalty:    out.Codes,
		Promotions: stripeClient,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("discount resolver: %w", err)
	}

	engine, err := pricing.NewEngine(pricing.EngineParams{
		Prices:    out.Catalog,
		Fees:      out.Shipping,
		MinCharge: cfg.Checkout.MinCharge,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("pricing engine: %w", err)
	}

	out.Payments, err = payments.NewService(payments.ServiceParams{
		Intents:  stripeClient,
		Resolver: out.Discounts,
		Pricing:  engine,
		Currency: cfg.Checkout.Currency,
		Metrics:  out.Metrics,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("payments service: %w", err)
	}

	out.Users, err = users.NewService(users.ServiceParams{
		Repo:   out.UsersRepo,
		Tx:     p.DB,
		Outbox: out.Outbox,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	out.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Intents:   orders.NewIntentRepository(conn),
		Tx:        p.DB,
		Payments:  out.Payments,
		Users:     out.UsersRepo,
		Codes:     out.Codes,
		Issuer:    out.Loyalty,
		Outbox:    out.Outbox,
		Cart:      out.Cart,
		Threshold: cfg.Loyalty.Threshold,
		Metrics:   out.Metrics,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return out, nil
}
