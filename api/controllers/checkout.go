package controllers

import (
	"net/http"
	"strings"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/payments"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// CheckoutDiscount validates a discount code for the caller without
// applying it anywhere.
func CheckoutDiscount(resolver discounts.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if resolver == nil {
			responses.WriteError(ctx, logg, w, unavailable("discount resolver"))
			return
		}
		uid, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload discountCodePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		res, err := resolver.Resolve(ctx, payload.Code, uid)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// CheckoutIntent authorizes the charge for a checkout, or reports that no
// payment step is needed.
func CheckoutIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("payment service"))
			return
		}
		req, err := decodeCheckout(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		auth, err := svc.CreateIntent(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth)
	}
}

func decodeCheckout(r *http.Request) (payments.CheckoutRequest, error) {
	uid, err := requireUser(r)
	if err != nil {
		return payments.CheckoutRequest{}, err
	}
	var req payments.CheckoutRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return payments.CheckoutRequest{}, err
	}
	req.UserID = uid
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(middleware.IdempotencyKeyHeader))
	return req, nil
}
