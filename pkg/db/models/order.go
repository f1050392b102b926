package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

// OrderItem is a snapshot of a cart line at placement time.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	PriceRef  string `json:"priceRef,omitempty"`
}

// Order is written once per successful checkout. Only Status (and the shipment
// reference) change afterwards.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string                `gorm:"column:user_id;not null;index:orders_user_created_idx,priority:1"`
	Items           []OrderItem           `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;not null"`
	Shipping        types.ShippingDetails `gorm:"column:shipping;type:jsonb;serializer:json;not null"`
	Customer        types.Customer        `gorm:"column:customer;type:jsonb;serializer:json;not null"`
	BillingAddress  *types.Address        `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Subtotal        int64                 `gorm:"column:subtotal;not null"`
	DiscountPercent int                   `gorm:"column:discount_percent;not null;default:0"`
	DiscountCode    *string               `gorm:"column:discount_code"`
	ShippingFee     int64                 `gorm:"column:shipping_fee;not null;default:0"`
	PriceTotal      int64                 `gorm:"column:price_total;not null"`
	PaymentRef      *string               `gorm:"column:payment_ref;uniqueIndex:orders_payment_ref_key"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	ShipmentID      *string               `gorm:"column:shipment_id"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index:orders_user_created_idx,priority:2"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
