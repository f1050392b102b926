package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/pagination"
	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          string                `json:"userId"`
	Items           []models.OrderItem    `json:"items"`
	ShippingMethod  enums.ShippingMethod  `json:"shippingMethod"`
	Shipping        types.ShippingDetails `json:"shipping"`
	Customer        types.Customer        `json:"customer"`
	BillingAddress  *types.Address        `json:"billingAddress,omitempty"`
	Subtotal        int64                 `json:"subtotal"`
	DiscountPercent int                   `json:"discountPercent"`
	DiscountCode    *string               `json:"discountCode,omitempty"`
	ShippingFee     int64                 `json:"shippingFee"`
	PriceTotal      int64                 `json:"priceTotal"`
	PaymentRef      *string               `json:"stripePaymentId,omitempty"`
	Status          enums.OrderStatus     `json:"status"`
	ShipmentID      *string               `json:"shipmentId,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// OrderListDTO is the paged admin listing.
type OrderListDTO struct {
	Items  []OrderDTO `json:"items"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// FromModel maps an order row to its transport shape.
func FromModel(m models.Order) OrderDTO {
	items := m.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	return OrderDTO{
		ID:              m.ID,
		UserID:          m.UserID,
		Items:           items,
		ShippingMethod:  m.ShippingMethod,
		Shipping:        m.Shipping,
		Customer:        m.Customer,
		BillingAddress:  m.BillingAddress,
		Subtotal:        m.Subtotal,
		DiscountPercent: m.DiscountPercent,
		DiscountCode:    m.DiscountCode,
		ShippingFee:     m.ShippingFee,
		PriceTotal:      m.PriceTotal,
		PaymentRef:      m.PaymentRef,
		Status:          m.Status,
		ShipmentID:      m.ShipmentID,
		CreatedAt:       m.CreatedAt,
	}
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

func pageFromModels(page pagination.Page[models.Order]) pagination.Page[OrderDTO] {
	return pagination.Page[OrderDTO]{Items: fromModels(page.Items), NextCursor: page.NextCursor}
}
