package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoyaltyCode is a single-use, user-scoped discount code. Rows are never deleted.
type LoyaltyCode struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID     string     `gorm:"column:owner_user_id;not null;index:loyalty_codes_owner_used_idx,priority:1"`
	Code            string     `gorm:"column:code;not null;uniqueIndex:loyalty_codes_code_key"`
	DiscountPercent int        `gorm:"column:discount_percent;not null"`
	Used            bool       `gorm:"column:used;not null;default:false;index:loyalty_codes_owner_used_idx,priority:2"`
	UsedAt          *time.Time `gorm:"column:used_at"`
	RedeemedOrderID *uuid.UUID `gorm:"column:redeemed_order_id;type:uuid"`
	IssuedByIntent  *uuid.UUID `gorm:"column:issued_by_intent_id;type:uuid;uniqueIndex:loyalty_codes_issued_by_intent_key"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (LoyaltyCode) TableName() string { return "loyalty_codes" }

func (c *LoyaltyCode) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
