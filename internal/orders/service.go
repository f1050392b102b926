package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/internal/loyalty"
	"github.com/jirivrbic-boss/extroworld/internal/payments"
	"github.com/jirivrbic-boss/extroworld/internal/users"
	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/payloads"
	"github.com/jirivrbic-boss/extroworld/pkg/pagination"
	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	seedDefaultPrice = 149
	seedDefaultName  = "Test objednávka"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type checkoutPreparer interface {
	Prepare(ctx context.Context, req payments.CheckoutRequest) (payments.Checkout, error)
	VerifyPayment(ctx context.Context, paymentRef, userID string, expectedAmount int64) (enums.PaymentState, error)
}

type thresholdIssuer interface {
	IssueThresholdCode(ctx context.Context, tx *gorm.DB, ownerUserID string, intentID uuid.UUID, points int64) (*models.LoyaltyCode, error)
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type placementRecorder interface {
	IncPlacement(outcome string)
	IncRedemptionConflict()
	IncReconciled()
}

// ServiceParams groups dependencies for the order ledger.
type ServiceParams struct {
	Repo      Repository
	Intents   IntentRepository
	Tx        txRunner
	Payments  checkoutPreparer
	Users     users.Repository
	Codes     loyalty.Repository
	Issuer    thresholdIssuer
	Outbox    outboxEmitter
	Cart      cartClearer
	Threshold int64
	Metrics   placementRecorder
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service places orders and serves order reads and back-office updates.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (OrderDTO, error)
	Reconcile(ctx context.Context, olderThan time.Duration) (ReconcileResult, error)
	Get(ctx context.Context, id uuid.UUID, userID string) (OrderDTO, error)
	GetAny(ctx context.Context, id uuid.UUID) (OrderDTO, error)
	ListForUser(ctx context.Context, userID string, params pagination.Params) (pagination.Page[OrderDTO], error)
	List(ctx context.Context, filter ListFilter) (OrderListDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (OrderDTO, error)
	AttachShipment(ctx context.Context, id uuid.UUID, shipmentID string) (OrderDTO, error)
	MarkPaidByPaymentRef(ctx context.Context, paymentRef string) (bool, error)
	Stats(ctx context.Context) (Stats, error)
	SeedTestOrder(ctx context.Context, input SeedInput) (OrderDTO, error)
}

// SeedInput creates a paid test order from the back office.
type SeedInput struct {
	UserID     string `json:"uid" validate:"required,max=128"`
	PriceTotal int64  `json:"priceTotal" validate:"omitempty,min=0"`
	Name       string `json:"name" validate:"omitempty,max=200"`
}

type service struct {
	repo      Repository
	intents   IntentRepository
	tx        txRunner
	payments  checkoutPreparer
	users     users.Repository
	codes     loyalty.Repository
	issuer    thresholdIssuer
	outbox    outboxEmitter
	cart      cartClearer
	threshold int64
	metrics   placementRecorder
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the order ledger.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	case params.Intents == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "placement intent repo is required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	case params.Payments == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments service is required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	case params.Codes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty repo is required")
	case params.Issuer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty issuer is required")
	case params.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		intents:   params.Intents,
		tx:        params.Tx,
		payments:  params.Payments,
		users:     params.Users,
		codes:     params.Codes,
		issuer:    params.Issuer,
		outbox:    params.Outbox,
		cart:      params.Cart,
		threshold: params.Threshold,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Get returns the order when it belongs to userID. Other users' orders read as not found.
func (s *service) Get(ctx context.Context, id uuid.UUID, userID string) (OrderDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return OrderDTO{}, err
	}
	if order.UserID != userID {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(*order), nil
}

func (s *service) GetAny(ctx context.Context, id uuid.UUID) (OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return OrderDTO{}, err
	}
	return FromModel(*order), nil
}

func (s *service) ListForUser(ctx context.Context, userID string, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if strings.TrimSpace(userID) == "" {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pageFromModels(page), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (OrderListDTO, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return OrderListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return OrderListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return OrderListDTO{Items: fromModels(rows), Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// SetStatus is the back-office status move. Any transition between known statuses is allowed.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (OrderDTO, error) {
	if !status.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == status {
			updated = order
			return nil
		}
		from := order.Status
		if _, err := repo.UpdateStatus(ctx, id, []enums.OrderStatus{from}, status); err != nil {
			return err
		}
		order.Status = status
		updated = order
		if from == enums.OrderStatusPending && status != enums.OrderStatusPending {
			if err := s.accrueTx(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id.String(),
			Actor:         outbox.Admin(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    id,
				From:       from,
				To:         status,
				ShipmentID: derefString(order.ShipmentID),
			},
		})
	})
	if err != nil {
		if db.IsNotFound(err) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return FromModel(*updated), nil
}

func (s *service) AttachShipment(ctx context.Context, id uuid.UUID, shipmentID string) (OrderDTO, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	if err := s.repo.SetShipment(ctx, id, shipmentID); err != nil {
		if db.IsNotFound(err) {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach shipment")
	}
	return s.GetAny(ctx, id)
}

// MarkPaidByPaymentRef settles a pending order from a processor callback.
// It reports false when no pending order carries the reference.
func (s *service) MarkPaidByPaymentRef(ctx context.Context, paymentRef string) (bool, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	var marked bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).MarkPaid(ctx, paymentRef)
		if err != nil {
			if db.IsNotFound(err) {
				return nil
			}
			return err
		}
		marked = true
		if err := s.accrueTx(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID.String(),
			Actor:         outbox.System(),
			Data: payloads.OrderPaidEvent{
				OrderID:    order.ID,
				UserID:     order.UserID,
				PaymentRef: paymentRef,
				PaidAt:     s.now().UTC(),
			},
		})
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if marked && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "payment_ref", paymentRef), "pending order settled by webhook")
	}
	return marked, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stats")
	}
	return stats, nil
}

// SeedTestOrder writes a paid single-line order for checking the back office
// and account pages. No points are accrued.
func (s *service) SeedTestOrder(ctx context.Context, input SeedInput) (OrderDTO, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "uid is required")
	}
	price := input.PriceTotal
	if price == 0 {
		price = seedDefaultPrice
	}
	if price < 1 {
		price = 1
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = seedDefaultName
	}

	order := &models.Order{
		UserID:         userID,
		Items:          []models.OrderItem{{ProductID: "test_product", Name: name, UnitPrice: price, Quantity: 1}},
		ShippingMethod: enums.ShippingMethodPickup,
		Shipping: types.ShippingDetails{
			Method:      enums.ShippingMethodPickup,
			PickupPoint: &types.PickupPoint{ID: "TEST123", Name: "Test výdejní místo", City: "Praha", Zip: "11000"},
		},
		Customer:   types.Customer{FirstName: "Admin", LastName: "Test", Email: "admin@extroworld.com", Phone: "+420000000000"},
		Subtotal:   price,
		PriceTotal: price,
		Status:     enums.OrderStatusPaid,
		CreatedAt:  s.now().UTC(),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).Ensure(ctx, userID, ""); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.emitPlaced(ctx, tx, order, enums.DiscountSourceNone, 0, outbox.ActorAdmin)
	})
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed test order")
	}
	return FromModel(*order), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) emitPlaced(ctx context.Context, tx *gorm.DB, order *models.Order, source enums.DiscountSource, delta int64, role string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID.String(),
		Actor:         outbox.ActorFor(role, order.UserID),
		Data: payloads.OrderPlacedEvent{
			OrderID:         order.ID,
			UserID:          order.UserID,
			PriceTotal:      order.PriceTotal,
			DiscountPercent: order.DiscountPercent,
			DiscountSource:  source,
			ShippingMethod:  order.ShippingMethod,
			Status:          order.Status,
			PaymentRef:      derefString(order.PaymentRef),
			PointsDelta:     delta,
		},
	})
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
