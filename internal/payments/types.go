package payments

import (
	"strings"

	"github.com/jirivrbic-boss/extroworld/internal/discounts"
	"github.com/jirivrbic-boss/extroworld/internal/pricing"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

// CheckoutRequest is the checkout submission shared by the intent and order endpoints.
type CheckoutRequest struct {
	UserID          string               `json:"-"`
	Customer        types.Customer       `json:"customer" validate:"required"`
	Items           []pricing.LineRef    `json:"items" validate:"required,min=1,max=50,dive"`
	DiscountCode    string               `json:"discountCode,omitempty" validate:"omitempty,max=64"`
	DiscountPercent int                  `json:"discountPercent" validate:"min=0,max=100"`
	ShippingMethod  enums.ShippingMethod `json:"shippingMethod" validate:"required"`
	PickupPoint     *types.PickupPoint   `json:"pickupPoint,omitempty"`
	BillingAddress  *types.Address       `json:"billingAddress,omitempty"`
	ShippingAddress *types.Address       `json:"shippingAddress,omitempty"`
	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

// ShippingDetails snapshots the delivery target of the request.
func (r CheckoutRequest) ShippingDetails() types.ShippingDetails {
	out := types.ShippingDetails{Method: r.ShippingMethod}
	if r.ShippingMethod.RequiresPickupPoint() {
		out.PickupPoint = r.PickupPoint
	} else {
		out.Address = r.ShippingAddress
	}
	return out
}

// Checkout is a validated, priced and discount-resolved request.
type Checkout struct {
	Request  CheckoutRequest
	Quote    pricing.Quote
	Discount discounts.Resolution
}

// RequiresPayment reports whether the processor must authorize a charge.
func (c Checkout) RequiresPayment() bool {
	return !c.Quote.ZeroAmount && c.Quote.DiscountPercent < 100
}

// DiscountCode returns the applied code, if any.
func (c Checkout) DiscountCode() *string {
	if strings.TrimSpace(c.Discount.Code) == "" {
		return nil
	}
	code := c.Discount.Code
	return &code
}

// Authorization is returned to the client after CreateIntent.
type Authorization struct {
	RequiresPayment bool                 `json:"requiresPayment"`
	ClientSecret    string               `json:"clientSecret,omitempty"`
	PaymentRef      string               `json:"paymentIntentId,omitempty"`
	Amount          int64                `json:"amount"`
	Currency        string               `json:"currency"`
	Quote           pricing.Quote        `json:"quote"`
	Discount        discounts.Resolution `json:"discount"`
}
