package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/pricing"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	pkgstripe "github.com/jirivrbic-boss/extroworld/pkg/stripe"
)

// Intent results recorded on the checkout metrics.
const (
	resultPayment  = "payment"
	resultSkipped  = "skipped"
	resultRejected = "rejected"
)

type paymentIntents interface {
	CreatePaymentIntent(ctx context.Context, in pkgstripe.PaymentIntentInput) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type intentRecorder interface {
	IncIntent(result string)
}

// ServiceParams groups dependencies for the payment orchestrator.
type ServiceParams struct {
	Intents  paymentIntents
	Resolver discounts.Resolver
	Pricing  pricing.Engine
	Currency string
	Metrics  intentRecorder
	Logger   *logger.Logger
}

// Service prepares checkouts and talks to the payment processor.
type Service interface {
	Prepare(ctx context.Context, req CheckoutRequest) (Checkout, error)
	CreateIntent(ctx context.Context, req CheckoutRequest) (Authorization, error)
	VerifyPayment(ctx context.Context, paymentRef, userID string, expectedAmount int64) (enums.PaymentState, error)
}

type service struct {
	intents  paymentIntents
	resolver discounts.Resolver
	pricing  pricing.Engine
	currency string
	metrics  intentRecorder
	logg     *logger.Logger
}

// NewService builds the payment orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Intents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent client is required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount resolver is required")
	}
	if params.Pricing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing engine is required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	return &service{
		intents:  params.Intents,
		resolver: params.Resolver,
		pricing:  params.Pricing,
		currency: currency,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Prepare validates the request, resolves its discount and prices it. The
// returned checkout is what both the authorization and the order are built from.
func (s *service) Prepare(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return Checkout{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := validateRequest(&req); err != nil {
		return Checkout{}, err
	}

	resolution, err := s.resolveDiscount(ctx, req)
	if err != nil {
		return Checkout{}, err
	}

	checkout := Checkout{Request: req, Discount: resolution}
	checkout.Quote, err = s.pricing.ComputeTotal(ctx, req.Items, resolution.Percent, req.ShippingMethod)
	return checkout, err
}

// CreateIntent authorizes the server-computed amount. Zero totals and full
// discounts skip the processor entirely. Each call creates a fresh intent; the
// previous one is left to expire.
func (s *service) CreateIntent(ctx context.Context, req CheckoutRequest) (Authorization, error) {
	checkout, err := s.Prepare(ctx, req)
	if err != nil {
		s.record(resultRejected)
		return Authorization{}, err
	}

	auth := Authorization{
		Amount:   checkout.Quote.Total,
		Currency: s.currency,
		Quote:    checkout.Quote,
		Discount: checkout.Discount,
	}
	if !checkout.RequiresPayment() {
		auth.Amount = 0
		s.record(resultSkipped)
		return auth, nil
	}

	input := pkgstripe.PaymentIntentInput{
		AmountMinor: pkgstripe.ToMinor(checkout.Quote.Total),
		Currency:    s.currency,
		Metadata:    buildMetadata(checkout),
	}
	if key := strings.TrimSpace(checkout.Request.IdempotencyKey); key != "" {
		input.IdempotencyKey = "checkout:" + checkout.Request.UserID + ":" + key
	}
	pi, err := s.intents.CreatePaymentIntent(ctx, input)
	if err != nil {
		s.record(resultRejected)
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, checkout.Request.UserID), "create payment intent failed", err)
		}
		return Authorization{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment processor unavailable")
	}

	auth.RequiresPayment = true
	auth.ClientSecret = pi.ClientSecret
	auth.PaymentRef = pi.ID
	s.record(resultPayment)
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"user_id":      checkout.Request.UserID,
			"payment_ref":  pi.ID,
			"amount":       checkout.Quote.Total,
			"discount_pct": checkout.Discount.Percent,
			"shipping":     string(checkout.Request.ShippingMethod),
		}), "payment intent created")
	}
	return auth, nil
}

// VerifyPayment checks that the referenced intent belongs to the user and
// covers the expected amount, then maps its processor status.
func (s *service) VerifyPayment(ctx context.Context, paymentRef, userID string, expectedAmount int64) (enums.PaymentState, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	pi, err := s.intents.GetPaymentIntent(ctx, paymentRef)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment")
	}
	if pi == nil || pi.Metadata[MetaUserID] != userID {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if !strings.EqualFold(string(pi.Currency), s.currency) || pi.Amount != pkgstripe.ToMinor(expectedAmount) {
		return "", pkgerrors.New(pkgerrors.CodePayment, "payment amount does not match the order").
			WithDetails(map[string]any{
				"expected": expectedAmount,
				"charged":  pkgstripe.FromMinor(pi.Amount),
			})
	}
	return MapStatus(pi.Status), nil
}

// MapStatus converts a processor status into the orchestrator's state.
func MapStatus(status stripe.PaymentIntentStatus) enums.PaymentState {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return enums.PaymentStateSucceeded
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return enums.PaymentStateProcessing
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return enums.PaymentStateRequiresAction
	default:
		return enums.PaymentStateFailed
	}
}

func (s *service) resolveDiscount(ctx context.Context, req CheckoutRequest) (discounts.Resolution, error) {
	code := discounts.Normalize(req.DiscountCode)
	if code == "" {
		if req.DiscountPercent != 0 {
			return discounts.Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required for a discount")
		}
		return discounts.Resolution{Source: enums.DiscountSourceNone}, nil
	}
	resolution, err := s.resolver.Resolve(ctx, code, req.UserID)
	if err != nil {
		return discounts.Resolution{}, err
	}
	if req.DiscountPercent != 0 && req.DiscountPercent != resolution.Percent {
		return discounts.Resolution{}, pkgerrors.New(pkgerrors.CodeStateConflict, "discount changed, refresh the checkout").
			WithDetails(map[string]any{"percent": resolution.Percent})
	}
	return resolution, nil
}

func (s *service) record(result string) {
	if s.metrics != nil {
		s.metrics.IncIntent(result)
	}
}
