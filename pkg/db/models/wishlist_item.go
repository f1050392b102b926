package models

import "time"

// WishlistItem links a user to a liked catalog product.
type WishlistItem struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	ProductID string    `gorm:"column:product_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (WishlistItem) TableName() string { return "wishlist_items" }
