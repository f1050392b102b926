package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

type priceLookup interface {
	LookupPrice(ctx context.Context, priceRef string) (catalog.PriceQuote, error)
}

type feeLookup interface {
	FeeFor(ctx context.Context, method enums.ShippingMethod) (int64, error)
}

// LineRef is what the client submits per line. Any client price is ignored.
type LineRef struct {
	PriceRef  string `json:"priceId" validate:"required,max=255"`
	ProductID string `json:"productId,omitempty" validate:"omitempty,max=255"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty" validate:"omitempty,max=16"`
}

// QuoteLine is a priced line snapshot.
type QuoteLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	PriceRef  string `json:"priceId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	LineTotal int64  `json:"lineTotal"`
}

// Quote is the server-authoritative total for a checkout.
type Quote struct {
	Lines           []QuoteLine          `json:"lines"`
	Subtotal        int64                `json:"subtotal"`
	DiscountPercent int                  `json:"discountPercent"`
	Merchandise     int64                `json:"merchandise"`
	ShippingMethod  enums.ShippingMethod `json:"shippingMethod"`
	ShippingFee     int64                `json:"shippingFee"`
	Total           int64                `json:"total"`
	// ZeroAmount marks a total that needs no payment step.
	ZeroAmount bool `json:"zeroAmount"`
}

// Engine totals checkouts from catalog prices.
type Engine interface {
	ComputeTotal(ctx context.Context, items []LineRef, discountPercent int, method enums.ShippingMethod) (Quote, error)
}

// EngineParams groups dependencies for the pricing engine.
type EngineParams struct {
	Prices    priceLookup
	Fees      feeLookup
	MinCharge int64
	Logger    *logger.Logger
}

type engine struct {
	prices    priceLookup
	fees      feeLookup
	minCharge int64
	logg      *logger.Logger
}

// NewEngine builds the pricing engine.
func NewEngine(params EngineParams) (Engine, error) {
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price lookup is required")
	}
	if params.Fees == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee lookup is required")
	}
	if params.MinCharge < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum charge must not be negative")
	}
	return &engine{
		prices:    params.Prices,
		fees:      params.Fees,
		minCharge: params.MinCharge,
		logg:      params.Logger,
	}, nil
}

// ComputeTotal re-prices every line, applies the discount to merchandise and
// then adds the shipping fee. A full discount waives shipping.
func (e *engine) ComputeTotal(ctx context.Context, items []LineRef, discountPercent int, method enums.ShippingMethod) (Quote, error) {
	if discountPercent < 0 || discountPercent > 100 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	if !method.IsValid() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}

	quote := Quote{
		Lines:           make([]QuoteLine, 0, len(items)),
		DiscountPercent: discountPercent,
		ShippingMethod:  method,
	}
	for _, item := range items {
		ref := strings.TrimSpace(item.PriceRef)
		if ref == "" {
			continue
		}
		price, err := e.prices.LookupPrice(ctx, ref)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				if e.logg != nil {
					e.logg.Warn(e.logg.WithField(ctx, "price_ref", ref), "skipping unavailable price")
				}
				continue
			}
			return Quote{}, err
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		productID := price.ProductID
		if productID == "" {
			productID = strings.TrimSpace(item.ProductID)
		}
		line := QuoteLine{
			ProductID: productID,
			Name:      price.Name,
			PriceRef:  price.PriceID,
			UnitPrice: price.UnitPrice,
			Quantity:  qty,
			Size:      strings.TrimSpace(item.Size),
			LineTotal: price.UnitPrice * int64(qty),
		}
		quote.Lines = append(quote.Lines, line)
		quote.Subtotal += line.LineTotal
	}
	if len(quote.Lines) == 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "cart has no purchasable items")
	}

	quote.Merchandise = ApplyDiscount(quote.Subtotal, discountPercent)
	if discountPercent < 100 {
		fee, err := e.fees.FeeFor(ctx, method)
		if err != nil {
			return Quote{}, err
		}
		quote.ShippingFee = fee
	}
	quote.Total = quote.Merchandise + quote.ShippingFee
	quote.ZeroAmount = quote.Total == 0

	if quote.Total > 0 && quote.Total < e.minCharge {
		return quote, pkgerrors.New(pkgerrors.CodeBelowMinimum, "order total is below the minimum online payment").
			WithDetails(map[string]int64{"total": quote.Total, "minimum": e.minCharge})
	}
	return quote, nil
}

// ApplyDiscount returns round(amount * (100 - percent) / 100), rounding half up.
// Percent is clamped to 0..100.
func ApplyDiscount(amount int64, percent int) int64 {
	if percent <= 0 {
		return amount
	}
	if percent >= 100 {
		return 0
	}
	keep := hundred.Sub(decimal.NewFromInt(int64(percent)))
	out := decimal.NewFromInt(amount).Mul(keep).Div(hundred).Round(0).IntPart()
	if out < 0 {
		return 0
	}
	return out
}
