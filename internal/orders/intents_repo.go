package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
)

// Step flag columns guarded by Claim.
const (
	stepOrderCreated    = "order_created"
	stepPointsApplied   = "points_applied"
	stepIssuanceChecked = "issuance_checked"
)

var claimableSteps = map[string]struct{}{
	stepOrderCreated:    {},
	stepPointsApplied:   {},
	stepIssuanceChecked: {},
}

const maxErrorLength = 1000

type intentRepository struct {
	db *gorm.DB
}

// NewIntentRepository builds a placement intent repository.
func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepository{db: db}
}

func (r *intentRepository) WithTx(tx *gorm.DB) IntentRepository {
	if tx == nil {
		return r
	}
	return &intentRepository{db: tx}
}

func (r *intentRepository) Create(ctx context.Context, intent *models.PlacementIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *intentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PlacementIntent, error) {
	var intent models.PlacementIntent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *intentRepository) FindByKey(ctx context.Context, userID, key string) (*models.PlacementIntent, error) {
	var intent models.PlacementIntent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *intentRepository) FindByPaymentRef(ctx context.Context, paymentRef string) (*models.PlacementIntent, error) {
	var intent models.PlacementIntent
	if err := r.db.WithContext(ctx).Where("payment_ref = ?", paymentRef).First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *intentRepository) Claim(ctx context.Context, id uuid.UUID, column string) (bool, error) {
	if _, ok := claimableSteps[column]; !ok {
		return false, fmt.Errorf("unknown placement step %q", column)
	}
	res := r.db.WithContext(ctx).
		Model(&models.PlacementIntent{}).
		Where("id = ? AND status = ?", id, enums.PlacementStatusInitiated).
		Where(column+" = ?", false).
		Update(column, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *intentRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.PlacementIntent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *intentRepository) RecordFailure(ctx context.Context, id uuid.UUID, message string) error {
	if len(message) > maxErrorLength {
		message = message[:maxErrorLength]
	}
	return r.db.WithContext(ctx).
		Model(&models.PlacementIntent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": message,
		}).Error
}

func (r *intentRepository) ListStuck(ctx context.Context, before time.Time, limit int) ([]models.PlacementIntent, error) {
	var rows []models.PlacementIntent
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.PlacementStatusInitiated, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
