package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// ListFilter narrows the back-office code listing.
type ListFilter struct {
	OwnerUserID string
	Used        *bool
	Limit       int
	Offset      int
}

// Repository manages persistence for loyalty codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.LoyaltyCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LoyaltyCode, error)
	FindUnusedByCode(ctx context.Context, ownerUserID, code string) (*models.LoyaltyCode, error)
	FindByIssuingIntent(ctx context.Context, intentID uuid.UUID) (*models.LoyaltyCode, error)
	HasUnused(ctx context.Context, ownerUserID string) (bool, error)
	Redeem(ctx context.Context, id uuid.UUID, ownerUserID string, orderID uuid.UUID, at time.Time) (bool, error)
	SetUsed(ctx context.Context, id uuid.UUID, used bool, at time.Time) error
	List(ctx context.Context, filter ListFilter) ([]models.LoyaltyCode, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.LoyaltyCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LoyaltyCode, error) {
	var code models.LoyaltyCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) FindUnusedByCode(ctx context.Context, ownerUserID, code string) (*models.LoyaltyCode, error) {
	var row models.LoyaltyCode
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ? AND code = ? AND used = ?", ownerUserID, code, false).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByIssuingIntent(ctx context.Context, intentID uuid.UUID) (*models.LoyaltyCode, error) {
	var row models.LoyaltyCode
	if err := r.db.WithContext(ctx).
		Where("issued_by_intent_id = ?", intentID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) HasUnused(ctx context.Context, ownerUserID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoyaltyCode{}).
		Where("owner_user_id = ? AND used = ?", ownerUserID, false).
		Count(&count).Error
	return count > 0, err
}

// Redeem flips used false -> true for the owner's code. It reports false when
// the code was already used or belongs to someone else.
func (r *repository) Redeem(ctx context.Context, id uuid.UUID, ownerUserID string, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LoyaltyCode{}).
		Where("id = ? AND owner_user_id = ? AND used = ?", id, ownerUserID, false).
		Updates(map[string]any{
			"used":              true,
			"used_at":           at,
			"redeemed_order_id": orderID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetUsed(ctx context.Context, id uuid.UUID, used bool, at time.Time) error {
	updates := map[string]any{"used": used, "used_at": nil}
	if used {
		updates["used_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.LoyaltyCode{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.LoyaltyCode, error) {
	q := r.db.WithContext(ctx).Model(&models.LoyaltyCode{})
	if filter.OwnerUserID != "" {
		q = q.Where("owner_user_id = ?", filter.OwnerUserID)
	}
	if filter.Used != nil {
		q = q.Where("used = ?", *filter.Used)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var rows []models.LoyaltyCode
	if err := q.Order("created_at DESC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
