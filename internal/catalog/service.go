package catalog

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	pkgstripe "github.com/jirivrbic-boss/extroworld/pkg/stripe"
)

const (
	metadataSizes    = "sizes"
	metadataCategory = "category"
)

// stripeCatalog is the slice of the Stripe adapter the catalog needs.
type stripeCatalog interface {
	ListActiveProducts(ctx context.Context) ([]*stripe.Product, error)
	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
	ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error)
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
	UpdateProduct(ctx context.Context, id string, params *stripe.ProductParams) (*stripe.Product, error)
	CreatePrice(ctx context.Context, productID string, unitAmountMinor int64, currency string) (*stripe.Price, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Stripe   stripeCatalog
	Currency string
	Logger   *logger.Logger
}

// Service reads and edits the product catalog held by the payment processor.
type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	LookupPrice(ctx context.Context, priceRef string) (PriceQuote, error)
	SyncProducts(ctx context.Context, items []SyncItem) []SyncResult
}

type service struct {
	stripe   stripeCatalog
	currency string
	logg     *logger.Logger
}

// NewService builds a catalog service backed by Stripe products and prices.
func NewService(params ServiceParams) (Service, error) {
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe catalog client is required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog currency is required")
	}
	return &service{
		stripe:   params.Stripe,
		currency: currency,
		logg:     params.Logger,
	}, nil
}

// ListProducts returns every active product.
func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	raw, err := s.stripe.ListActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		if p == nil {
			continue
		}
		product, err := s.normalize(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, nil
}

// GetProduct returns a single product. Any lookup failure reads as not found.
func (s *service) GetProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := s.stripe.GetProduct(ctx, id)
	if err != nil || p == nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	product, err := s.normalize(ctx, p)
	if err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	return product, nil
}

// LookupPrice fetches a price by reference. Inactive, foreign-currency and
// amountless prices are reported as not found.
func (s *service) LookupPrice(ctx context.Context, priceRef string) (PriceQuote, error) {
	priceRef = strings.TrimSpace(priceRef)
	if priceRef == "" {
		return PriceQuote{}, pkgerrors.New(pkgerrors.CodeValidation, "price reference is required")
	}
	pr, err := s.stripe.GetPrice(ctx, priceRef)
	if err != nil {
		return PriceQuote{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "price not found")
	}
	if !s.usable(pr) {
		return PriceQuote{}, pkgerrors.New(pkgerrors.CodeNotFound, "price not available")
	}

	quote := PriceQuote{
		PriceID:   pr.ID,
		UnitPrice: pkgstripe.FromMinor(pr.UnitAmount),
		Currency:  string(pr.Currency),
	}
	if pr.Product != nil {
		quote.ProductID = pr.Product.ID
		quote.Name = pr.Product.Name
	}
	return quote, nil
}

// SyncProducts pushes admin edits to the catalog one item at a time. A failing
// item does not stop the rest.
func (s *service) SyncProducts(ctx context.Context, items []SyncItem) []SyncResult {
	results := make([]SyncResult, 0, len(items))
	for _, item := range items {
		result := SyncResult{ProductID: strings.TrimSpace(item.ProductID)}
		priceID, err := s.syncOne(ctx, item)
		if err != nil {
			result.Error = err.Error()
			if s.logg != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": result.ProductID,
					"error":      err.Error(),
				}), "catalog sync item failed")
			}
		} else {
			result.OK = true
			result.PriceID = priceID
		}
		results = append(results, result)
	}
	return results
}

func (s *service) syncOne(ctx context.Context, item SyncItem) (string, error) {
	id := strings.TrimSpace(item.ProductID)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	params := &stripe.ProductParams{}
	if item.Name != nil {
		params.Name = stripe.String(strings.TrimSpace(*item.Name))
	}
	if item.Description != nil {
		params.Description = stripe.String(*item.Description)
	}
	if item.Images != nil {
		params.Images = stripe.StringSlice(item.Images)
	}
	if item.Sizes != nil {
		params.AddMetadata(metadataSizes, strings.Join(cleanSizes(item.Sizes), ","))
	}
	if item.Category != nil {
		params.AddMetadata(metadataCategory, strings.TrimSpace(*item.Category))
	}

	var priceID string
	if item.Price != nil {
		if *item.Price <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		pr, err := s.stripe.CreatePrice(ctx, id, pkgstripe.ToMinor(*item.Price), s.currency)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price")
		}
		priceID = pr.ID
		params.DefaultPrice = stripe.String(pr.ID)
	}

	if _, err := s.stripe.UpdateProduct(ctx, id, params); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return priceID, nil
}

func (s *service) normalize(ctx context.Context, p *stripe.Product) (Product, error) {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Images:      p.Images,
		Description: p.Description,
		Category:    strings.TrimSpace(p.Metadata[metadataCategory]),
		Stock:       DefaultStock,
		Sizes:       parseSizes(p.Metadata[metadataSizes]),
	}
	if out.Images == nil {
		out.Images = []string{}
	}

	pr := p.DefaultPrice
	if !s.usable(pr) {
		prices, err := s.stripe.ListActivePrices(ctx, p.ID)
		if err != nil {
			return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list prices")
		}
		pr = nil
		for _, candidate := range prices {
			if s.usable(candidate) {
				pr = candidate
				break
			}
		}
	}
	if pr != nil {
		out.PriceID = pr.ID
		out.Price = pkgstripe.FromMinor(pr.UnitAmount)
	}
	return out, nil
}

func (s *service) usable(pr *stripe.Price) bool {
	return pr != nil && pr.Active && strings.EqualFold(string(pr.Currency), s.currency) && pr.UnitAmount > 0
}

func parseSizes(raw string) []string {
	return cleanSizes(strings.Split(raw, ","))
}

func cleanSizes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
