package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// CodeDTO is the transport shape of a loyalty code.
type CodeDTO struct {
	ID              uuid.UUID  `json:"id"`
	OwnerUserID     string     `json:"userId"`
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount"`
	Used            bool       `json:"used"`
	UsedAt          *time.Time `json:"usedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// GenerateInput is the admin bulk generation request.
type GenerateInput struct {
	OwnerUserID string `json:"userId" validate:"required,max=128"`
	Count       int    `json:"count" validate:"required,min=1,max=50"`
	Percent     int    `json:"discount" validate:"required,min=1,max=100"`
}

// FromModel maps the persistence model to its transport shape.
func FromModel(m models.LoyaltyCode) CodeDTO {
	return CodeDTO{
		ID:              m.ID,
		OwnerUserID:     m.OwnerUserID,
		Code:            m.Code,
		DiscountPercent: m.DiscountPercent,
		Used:            m.Used,
		UsedAt:          m.UsedAt,
		CreatedAt:       m.CreatedAt,
	}
}

func fromModels(rows []models.LoyaltyCode) []CodeDTO {
	out := make([]CodeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
