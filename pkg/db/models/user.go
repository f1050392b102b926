package models

import "time"

// User is the customer identity as known to the storefront. ID is the identity
// provider's subject.
type User struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Email         string    `gorm:"column:email;not null;default:''"`
	LoyaltyPoints int64     `gorm:"column:loyalty_points;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
