package users

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
)

// Repository manages persistence for storefront users.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Ensure(ctx context.Context, userID, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	AddPoints(ctx context.Context, userID string, delta int64) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Ensure creates the user on first sight and backfills a missing email.
func (r *repository) Ensure(ctx context.Context, userID, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user := models.User{ID: userID, Email: email}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error; err != nil {
		return nil, err
	}
	if email != "" {
		if err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ? AND email = ''", userID).
			Update("email", email).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, userID)
}

func (r *repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AddPoints applies delta and clamps the balance at zero. Returns the new balance.
func (r *repository) AddPoints(ctx context.Context, userID string, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("loyalty_points", gorm.Expr("CASE WHEN loyalty_points + ? < 0 THEN 0 ELSE loyalty_points + ? END", delta, delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.LoyaltyPoints, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var rows []models.User
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
