package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jirivrbic-boss/extroworld/api/routes"
	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/internal/bootstrap"
	"github.com/jirivrbic-boss/extroworld/internal/newsletter"
	"github.com/jirivrbic-boss/extroworld/internal/shipments"
	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
	stripewebhook "github.com/jirivrbic-boss/extroworld/internal/webhooks/stripe"
	"github.com/jirivrbic-boss/extroworld/internal/wishlist"
	"github.com/jirivrbic-boss/extroworld/pkg/auth/session"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/packeta"
	"github.com/jirivrbic-boss/extroworld/pkg/redis"
	"github.com/jirivrbic-boss/extroworld/pkg/telemetry"
)

const (
	webhookDedupTTL   = 72 * time.Hour
	webhookDedupScope = "stripe_webhook"
)

// ServiceParams carries the bootstrapped infrastructure the api wires into
// its domain services.
type ServiceParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry prometheus.Registerer
	Metrics  http.Handler
}

// buildDeps constructs every domain service and returns the router inputs.
func buildDeps(ctx context.Context, params ServiceParams) (routes.Deps, error) {
	cfg := params.Config
	logg := params.Logger
	conn := params.DB.DB()

	core, err := bootstrap.NewCheckout(ctx, bootstrap.Params{
		Config:   cfg,
		Logger:   logg,
		DB:       params.DB,
		Redis:    params.Redis,
		Registry: params.Registry,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	carrier, err := packeta.NewClient(cfg.Packeta.APIPassword,
		packeta.WithHTTPClient(telemetry.HTTPClient(cfg.Packeta.Timeout)),
		packeta.WithBaseURL(cfg.Packeta.BaseURL),
		packeta.WithVersions(cfg.Packeta.APIVersions),
		packeta.WithEshop(cfg.Packeta.Eshop),
	)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("packeta client: %w", err)
	}

	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
		Catalog:      core.Catalog,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("wishlist service: %w", err)
	}

	newsletterSvc, err := newsletter.NewService(newsletter.NewRepository(conn), logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("newsletter service: %w", err)
	}

	shipmentsSvc, err := shipments.NewService(shipments.ServiceParams{
		Carrier: carrier,
		Orders:  core.Orders,
		Logger:  logg,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("shipments service: %w", err)
	}

	guard, err := stripewebhook.NewEventLedger(params.Redis, webhookDedupTTL, webhookDedupScope)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("webhook guard: %w", err)
	}
	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Verifier: core.Stripe,
		Orders:   core.Orders,
		Guard:    guard,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("webhook service: %w", err)
	}

	var adminSvc admin.Service
	if cfg.Admin.Configured() {
		sessions, err := session.NewManager(params.Redis, cfg.Admin)
		if err != nil {
			return routes.Deps{}, fmt.Errorf("admin sessions: %w", err)
		}
		adminSvc, err = admin.NewService(admin.ServiceParams{
			Config:     cfg.Admin,
			Sessions:   sessions,
			Limiter:    params.Redis,
			Orders:     core.Orders,
			Promotions: core.Stripe,
			Logger:     logg,
		})
		if err != nil {
			return routes.Deps{}, fmt.Errorf("admin service: %w", err)
		}
	} else {
		logg.Warn(ctx, "admin credentials not configured; back office disabled")
	}

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          params.DB,
		Redis:       params.Redis,
		RateLimits:  params.Redis,
		Idempotency: params.Redis,
		Metrics:     params.Metrics,
		Catalog:     core.Catalog,
		Shipping:    core.Shipping,
		Cart:        core.Cart,
		Discounts:   core.Discounts,
		Payments:    core.Payments,
		Orders:      core.Orders,
		Users:       core.Users,
		Loyalty:     core.Loyalty,
		Wishlist:    wishlistSvc,
		Newsletter:  newsletterSvc,
		Shipments:   shipmentsSvc,
		Admin:       adminSvc,
		Lock:        sitelock.NewGate(cfg.Lock, adminSvc, time.Now),
		Webhook:     webhookSvc,
	}, nil
}
