package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

type orderSettler interface {
	MarkPaidByPaymentRef(ctx context.Context, paymentRef string) (bool, error)
}

type eventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type eventGuard interface {
	Claim(ctx context.Context, event stripe.Event) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// ServiceParams groups the webhook dependencies.
type ServiceParams struct {
	Verifier eventVerifier
	Orders   orderSettler
	Guard    eventGuard
	Logger   *logger.Logger
}

// Service verifies and applies payment processor webhooks.
type Service struct {
	verifier eventVerifier
	orders   orderSettler
	guard    eventGuard
	logg     *logger.Logger
}

// NewService builds the webhook service. Guard is optional; without it
// redeliveries rely on the order status check alone.
func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe verifier required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		verifier: params.Verifier,
		orders:   params.Orders,
		guard:    params.Guard,
		logg:     params.Logger,
	}, nil
}

// Handle verifies the signature on payload and applies the event once.
func (s *Service) Handle(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing Stripe-Signature header")
	}
	event, err := s.verifier.ConstructEvent(payload, signature)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook signature")
	}

	if s.guard != nil && event.ID != "" {
		first, err := s.guard.Claim(ctx, event)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency")
		}
		if !first {
			if s.logg != nil {
				s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "duplicate stripe event skipped")
			}
			return nil
		}
	}

	if err := s.HandleEvent(ctx, &event); err != nil {
		if s.guard != nil && event.ID != "" {
			_ = s.guard.Forget(context.WithoutCancel(ctx), event.ID)
		}
		return err
	}
	return nil
}

// HandleEvent applies a verified event. Unknown types are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		pi, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		marked, err := s.orders.MarkPaidByPaymentRef(ctx, pi.ID)
		if err != nil {
			return err
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"event_id":          event.ID,
				"payment_intent_id": pi.ID,
				"order_marked_paid": marked,
			}), "payment_intent.succeeded")
		}
		return nil
	case stripe.EventTypePaymentIntentPaymentFailed:
		pi, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		if s.logg != nil {
			fields := map[string]any{
				"event_id":          event.ID,
				"payment_intent_id": pi.ID,
			}
			if pi.LastPaymentError != nil {
				fields["decline_code"] = string(pi.LastPaymentError.DeclineCode)
				fields["message"] = pi.LastPaymentError.Msg
			}
			s.logg.Warn(s.logg.WithFields(ctx, fields), "payment_intent.payment_failed")
		}
		return nil
	default:
		return nil
	}
}

func decodePaymentIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if pi.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &pi, nil
}
