package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentRef(ctx context.Context, paymentRef string) (*models.Order, error)
	ListForUser(ctx context.Context, userID string, params pagination.Params) (pagination.Page[models.Order], error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error)
	SetShipment(ctx context.Context, id uuid.UUID, shipmentID string) error
	MarkPaid(ctx context.Context, paymentRef string) (*models.Order, error)
	Stats(ctx context.Context) (Stats, error)
}

// IntentRepository persists placement intents.
type IntentRepository interface {
	WithTx(tx *gorm.DB) IntentRepository
	Create(ctx context.Context, intent *models.PlacementIntent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PlacementIntent, error)
	FindByKey(ctx context.Context, userID, key string) (*models.PlacementIntent, error)
	FindByPaymentRef(ctx context.Context, paymentRef string) (*models.PlacementIntent, error)
	// Claim flips a step flag false -> true and reports whether this caller won it.
	Claim(ctx context.Context, id uuid.UUID, column string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	RecordFailure(ctx context.Context, id uuid.UUID, message string) error
	ListStuck(ctx context.Context, before time.Time, limit int) ([]models.PlacementIntent, error)
}

// ListFilter narrows the back-office order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	UserID string
	Limit  int
	Offset int
}

// Stats is the admin dashboard summary.
type Stats struct {
	Orders      int64 `json:"orders"`
	PaidOrders  int64 `json:"paidOrders"`
	PaidRevenue int64 `json:"paidRevenue"`
	Users       int64 `json:"users"`
}
