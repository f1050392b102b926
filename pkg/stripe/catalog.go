package stripe

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/price"
	"github.com/stripe/stripe-go/v84/product"
)

// ListActiveProducts returns every active product with its default price expanded.
func (c *Client) ListActiveProducts(ctx context.Context) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.AddExpand("data.default_price")

	var out []*stripe.Product
	iter := product.List(params)
	for iter.Next() {
		out = append(out, iter.Product())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches a single product with its default price expanded.
func (c *Client) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	params.AddExpand("default_price")
	return product.Get(strings.TrimSpace(id), params)
}

// UpdateProduct applies the provided product params.
func (c *Client) UpdateProduct(ctx context.Context, id string, params *stripe.ProductParams) (*stripe.Product, error) {
	if params == nil {
		params = &stripe.ProductParams{}
	}
	params.Context = ctx
	return product.Update(id, params)
}

// ListActivePrices returns active prices for a product.
func (c *Client) ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx

	var out []*stripe.Price
	iter := price.List(params)
	for iter.Next() {
		out = append(out, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPrice fetches a price object by id with its product expanded.
func (c *Client) GetPrice(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")
	return price.Get(strings.TrimSpace(id), params)
}

// CreatePrice creates a one-off price for a product.
func (c *Client) CreatePrice(ctx context.Context, productID string, unitAmountMinor int64, currency string) (*stripe.Price, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(unitAmountMinor),
		Currency:   stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	return price.New(params)
}
