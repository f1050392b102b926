package stripe

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// PaymentIntentInput describes a card authorization for a server-computed amount.
type PaymentIntentInput struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	// IdempotencyKey deduplicates retries of the same checkout attempt.
	IdempotencyKey string
}

// CreatePaymentIntent creates a PaymentIntent with automatic payment methods enabled.
func (c *Client) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountMinor),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	params.Context = ctx
	return paymentintent.New(params)
}

// GetPaymentIntent retrieves a PaymentIntent by id.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(strings.TrimSpace(id), params)
}
