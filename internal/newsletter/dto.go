package newsletter

import (
	"time"

	"github.com/google/uuid"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// SubscribeInput is the public signup payload.
type SubscribeInput struct {
	Email            string   `json:"email" validate:"required,email,max=254"`
	Name             string   `json:"name,omitempty" validate:"omitempty,max=120"`
	Source           string   `json:"source,omitempty" validate:"omitempty,max=64"`
	Segments         []string `json:"segments" validate:"required,min=1,max=3"`
	ConsentMarketing bool     `json:"consentMarketing"`
	ConsentProfiling bool     `json:"consentProfiling"`
}

// SubscriptionDTO is the admin view of one signup.
type SubscriptionDTO struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	Source           string    `json:"source,omitempty"`
	Segments         []string  `json:"segments"`
	ConsentMarketing bool      `json:"consentMarketing"`
	ConsentProfiling bool      `json:"consentProfiling"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ListDTO is a page of signups.
type ListDTO struct {
	Items  []SubscriptionDTO `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func fromModel(m models.NewsletterSubscription) SubscriptionDTO {
	segments := m.Segments
	if segments == nil {
		segments = []string{}
	}
	return SubscriptionDTO{
		ID:               m.ID,
		Email:            m.Email,
		Name:             m.Name,
		Source:           m.Source,
		Segments:         segments,
		ConsentMarketing: m.ConsentMarketing,
		ConsentProfiling: m.ConsentProfiling,
		CreatedAt:        m.CreatedAt,
	}
}
