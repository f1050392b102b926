package newsletter

import (
	"context"

	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// Repository persists newsletter signups.
type Repository interface {
	Create(ctx context.Context, sub *models.NewsletterSubscription) error
	List(ctx context.Context, limit, offset int) ([]models.NewsletterSubscription, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gorm-backed newsletter repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *models.NewsletterSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.NewsletterSubscription, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.NewsletterSubscription{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.NewsletterSubscription
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}
