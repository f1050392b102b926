package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const maxWebhookBytes = 1 << 20

type webhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// StripeWebhook verifies and applies a processor event. The raw body is
// passed through untouched because the signature covers its exact bytes.
func StripeWebhook(svc webhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("webhook service"))
			return
		}
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}
		if err := svc.Handle(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, map[string]bool{"received": true})
	}
}
