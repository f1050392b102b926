package users

import (
	"time"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// UserDTO is the transport shape of a storefront user.
type UserDTO struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	LoyaltyPoints int64     `json:"loyaltyPoints"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserListDTO is an offset page of users for the back office.
type UserListDTO struct {
	Items  []UserDTO `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// FromModel maps the persistence model to its transport shape.
func FromModel(m models.User) UserDTO {
	return UserDTO{
		ID:            m.ID,
		Email:         m.Email,
		LoyaltyPoints: m.LoyaltyPoints,
		CreatedAt:     m.CreatedAt,
	}
}
