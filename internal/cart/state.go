package cart

import (
	"github.com/jirivrbic-boss/extroworld/internal/pricing"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
)

// SchemaVersion tags persisted cart documents so older shapes can be detected.
const SchemaVersion = "extro-cart-v1"

// LineItem is one cart row. Price is advisory; checkout re-prices from the catalog.
type LineItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	PriceID   string `json:"priceId,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l LineItem) sameLine(productID, size string) bool {
	return l.ProductID == productID && l.Size == size
}

// Discount is the single discount applied to a cart.
type Discount struct {
	Code    string `json:"code,omitempty"`
	Percent int    `json:"percent"`
}

// State is the serializable cart document.
type State struct {
	Schema         string               `json:"schema"`
	Items          []LineItem           `json:"items"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod"`
	Discount       *Discount            `json:"discount,omitempty"`
	Version        int64                `json:"version"`
}

// NewState returns an empty cart with the default shipping method.
func NewState() State {
	return State{
		Schema:         SchemaVersion,
		Items:          []LineItem{},
		ShippingMethod: enums.DefaultShippingMethod,
	}
}

// Subtotal sums advisory line prices.
func (s State) Subtotal() int64 {
	var sum int64
	for _, item := range s.Items {
		sum += item.Price * int64(item.Quantity)
	}
	return sum
}

// DiscountPercent returns the applied percent or 0.
func (s State) DiscountPercent() int {
	if s.Discount == nil {
		return 0
	}
	return s.Discount.Percent
}

// Total is the display total after discount. It excludes shipping.
func (s State) Total() int64 {
	return pricing.ApplyDiscount(s.Subtotal(), s.DiscountPercent())
}

// ItemCount is the number of units in the cart.
func (s State) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether the cart carries no items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s State) clone() State {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	copy(out.Items, s.Items)
	if s.Discount != nil {
		d := *s.Discount
		out.Discount = &d
	}
	return out
}

// normalize repairs documents written by older clients.
func (s State) normalize() State {
	if s.Schema == "" {
		s.Schema = SchemaVersion
	}
	if s.Items == nil {
		s.Items = []LineItem{}
	}
	if !s.ShippingMethod.IsValid() {
		s.ShippingMethod = enums.DefaultShippingMethod
	}
	if s.Discount != nil && (s.Discount.Percent < 0 || s.Discount.Percent > 100) {
		s.Discount = nil
	}
	return s
}
