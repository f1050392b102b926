package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
)

// PlacementIntent is the durable record written before any order side effect.
// Each step flag is the postcondition the replay checks before acting again.
type PlacementIntent struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string                `gorm:"column:user_id;not null;uniqueIndex:placement_intents_user_key,priority:1"`
	IdempotencyKey  string                `gorm:"column:idempotency_key;not null;uniqueIndex:placement_intents_user_key,priority:2"`
	PaymentRef      *string               `gorm:"column:payment_ref;uniqueIndex:placement_intents_payment_ref_key"`
	Status          enums.PlacementStatus `gorm:"column:status;not null;default:'initiated';index"`
	Draft           Order                 `gorm:"column:draft;type:jsonb;serializer:json;not null"`
	DiscountSource  enums.DiscountSource  `gorm:"column:discount_source;not null;default:''"`
	MatchedCodeID   *uuid.UUID            `gorm:"column:matched_code_id;type:uuid"`
	PointsDelta     int64                 `gorm:"column:points_delta;not null;default:0"`
	OrderCreated    bool                  `gorm:"column:order_created;not null;default:false"`
	PointsApplied   bool                  `gorm:"column:points_applied;not null;default:false"`
	IssuanceChecked bool                  `gorm:"column:issuance_checked;not null;default:false"`
	IssuedCodeID    *uuid.UUID            `gorm:"column:issued_code_id;type:uuid"`
	Attempts        int                   `gorm:"column:attempts;not null;default:0"`
	LastError       *string               `gorm:"column:last_error"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
	CompletedAt     *time.Time            `gorm:"column:completed_at"`
}

func (PlacementIntent) TableName() string { return "placement_intents" }

func (p *PlacementIntent) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
