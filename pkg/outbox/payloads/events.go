package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
)

// OrderPlacedEvent is emitted once per completed placement.
type OrderPlacedEvent struct {
	OrderID         uuid.UUID            `json:"orderId"`
	UserID          string               `json:"userId"`
	PriceTotal      int64                `json:"priceTotal"`
	DiscountPercent int                  `json:"discountPercent"`
	DiscountSource  enums.DiscountSource `json:"discountSource,omitempty"`
	ShippingMethod  enums.ShippingMethod `json:"shippingMethod"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentRef      string               `json:"paymentRef,omitempty"`
	PointsDelta     int64                `json:"pointsDelta"`
}

// OrderPaidEvent is emitted when a pending order is settled by the payment processor.
type OrderPaidEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	UserID     string    `json:"userId"`
	PaymentRef string    `json:"paymentRef"`
	PaidAt     time.Time `json:"paidAt"`
}

// OrderStatusChangedEvent records back-office status moves.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	ShipmentID string            `json:"shipmentId,omitempty"`
}

// LoyaltyCodeIssuedEvent announces a new redeemable code.
type LoyaltyCodeIssuedEvent struct {
	CodeID          uuid.UUID  `json:"codeId"`
	OwnerUserID     string     `json:"ownerUserId"`
	DiscountPercent int        `json:"discountPercent"`
	IntentID        *uuid.UUID `json:"intentId,omitempty"`
	Points          int64      `json:"points,omitempty"`
}

// LoyaltyCodeRedeemedEvent records a successful single-use redemption.
type LoyaltyCodeRedeemedEvent struct {
	CodeID      uuid.UUID `json:"codeId"`
	OwnerUserID string    `json:"ownerUserId"`
	OrderID     uuid.UUID `json:"orderId"`
}

// MasterCodeUsedEvent is the audit trail for the reserved override code.
type MasterCodeUsedEvent struct {
	OrderID uuid.UUID `json:"orderId"`
	UserID  string    `json:"userId"`
	Waived  int64     `json:"waived"`
}

// LoyaltyPointsAdjustedEvent records manual point corrections.
type LoyaltyPointsAdjustedEvent struct {
	UserID string `json:"userId"`
	Delta  int64  `json:"delta"`
	Points int64  `json:"points"`
}
