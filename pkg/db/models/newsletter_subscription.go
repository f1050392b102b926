package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsletterSubscription is an append-only signup record.
type NewsletterSubscription struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email            string    `gorm:"column:email;not null;index"`
	Name             string    `gorm:"column:name;not null;default:''"`
	Source           string    `gorm:"column:source;not null;default:''"`
	Segments         []string  `gorm:"column:segments;type:jsonb;serializer:json;not null"`
	ConsentMarketing bool      `gorm:"column:consent_marketing;not null"`
	ConsentProfiling bool      `gorm:"column:consent_profiling;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (NewsletterSubscription) TableName() string { return "newsletter_subscriptions" }

func (n *NewsletterSubscription) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
