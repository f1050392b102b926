package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/shippingrate"
)

// GetShippingRate fetches a shipping rate by id.
func (c *Client) GetShippingRate(ctx context.Context, id string) (*stripe.ShippingRate, error) {
	params := &stripe.ShippingRateParams{}
	params.Context = ctx
	return shippingrate.Get(id, params)
}

// ListActiveShippingRates returns every active shipping rate.
func (c *Client) ListActiveShippingRates(ctx context.Context) ([]*stripe.ShippingRate, error) {
	params := &stripe.ShippingRateListParams{Active: stripe.Bool(true)}
	params.Context = ctx

	var out []*stripe.ShippingRate
	iter := shippingrate.List(params)
	for iter.Next() {
		out = append(out, iter.ShippingRate())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
