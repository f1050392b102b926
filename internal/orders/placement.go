package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/jirivrbic-boss/extroworld/internal/payments"
	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/metrics"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/payloads"
)

const (
	maxIdempotencyKeyLength = 128
	reconcileBatchSize      = 100
	// maxPlacementAttempts bounds retries of an intent whose order was never written.
	maxPlacementAttempts = 10
)

var (
	errCodeAlreadyUsed = pkgerrors.New(pkgerrors.CodeConflict, "discount code already used")
	errPaymentReused   = pkgerrors.New(pkgerrors.CodeConflict, "payment already belongs to another order")
)

// PlaceOrderInput is the order submission. PaymentRef is the processor
// intent id when a payment step ran.
type PlaceOrderInput struct {
	Checkout   payments.CheckoutRequest
	PaymentRef string
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Abandoned int `json:"abandoned"`
	Failed    int `json:"failed"`
}

// PlaceOrder records the order and its loyalty effects. A durable intent is
// written first; every later step checks its own flag before acting, so a
// retry with the same idempotency key resumes where the previous call stopped.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (OrderDTO, error) {
	req := input.Checkout
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req.UserID = userID
	paymentRef := strings.TrimSpace(input.PaymentRef)
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" && paymentRef != "" {
		key = "payment:" + paymentRef
	}
	if key == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required")
	}
	if len(key) > maxIdempotencyKeyLength {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key too long")
	}

	existing, err := s.intents.FindByKey(ctx, userID, key)
	switch {
	case err == nil:
		return s.resume(ctx, existing)
	case !db.IsNotFound(err):
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placement")
	}
	if paymentRef != "" {
		existing, err := s.intents.FindByPaymentRef(ctx, paymentRef)
		switch {
		case err == nil:
			if existing.UserID != userID {
				return OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return s.resume(ctx, existing)
		case !db.IsNotFound(err):
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placement")
		}
	}

	checkout, err := s.payments.Prepare(ctx, req)
	if err != nil {
		s.recordOutcome(metrics.OutcomeFailed)
		return OrderDTO{}, err
	}
	status, ref, err := s.settle(ctx, checkout, paymentRef)
	if err != nil {
		s.recordOutcome(metrics.OutcomeFailed)
		return OrderDTO{}, err
	}

	if _, err := s.users.Ensure(ctx, userID, checkout.Request.Customer.Email); err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure user")
	}

	intent := newIntent(checkout, key, ref, status)
	if err := s.intents.Create(ctx, intent); err != nil {
		if !db.IsUniqueViolation(err, "") {
			return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record placement")
		}
		if raced, ferr := s.intents.FindByKey(ctx, userID, key); ferr == nil {
			return s.resume(ctx, raced)
		}
		return OrderDTO{}, errPaymentReused
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"intent_id":       intent.ID.String(),
			"user_id":         userID,
			"status":          string(status),
			"discount_source": string(intent.DiscountSource),
		}), "placement intent recorded")
	}

	order, err := s.run(ctx, intent)
	if order == nil {
		return OrderDTO{}, err
	}
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"intent_id": intent.ID.String(),
			"error":     err.Error(),
		}), "order recorded, loyalty steps left for reconciliation")
	}
	s.clearCart(ctx, userID)
	s.recordOutcome(outcomeFor(order))
	return FromModel(*order), nil
}

// Reconcile finishes intents left in initiated for longer than olderThan.
// Failures are collected and returned together; the pass keeps going.
func (s *service) Reconcile(ctx context.Context, olderThan time.Duration) (ReconcileResult, error) {
	var result ReconcileResult
	stuck, err := s.intents.ListStuck(ctx, s.now().UTC().Add(-olderThan), reconcileBatchSize)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stuck placements")
	}

	var errs error
	for i := range stuck {
		intent := &stuck[i]
		result.Scanned++
		if !intent.OrderCreated && intent.Attempts >= maxPlacementAttempts {
			if err := s.abandon(ctx, intent, "retry budget exhausted"); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("abandon intent %s: %w", intent.ID, err))
				result.Failed++
				continue
			}
			result.Abandoned++
			continue
		}
		if _, err := s.run(ctx, intent); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				result.Abandoned++
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("intent %s: %w", intent.ID, err))
			result.Failed++
			continue
		}
		result.Completed++
		if s.metrics != nil {
			s.metrics.IncReconciled()
		}
	}

	if s.logg != nil && result.Scanned > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"scanned":   result.Scanned,
			"completed": result.Completed,
			"abandoned": result.Abandoned,
			"failed":    result.Failed,
		}), "placement reconciliation pass")
	}
	return result, errs
}

func (s *service) resume(ctx context.Context, intent *models.PlacementIntent) (OrderDTO, error) {
	switch intent.Status {
	case enums.PlacementStatusCompleted:
		order, err := s.load(ctx, intent.ID)
		if err != nil {
			return OrderDTO{}, err
		}
		s.recordOutcome(metrics.OutcomeReplayed)
		return FromModel(*order), nil
	case enums.PlacementStatusAbandoned:
		msg := "order placement was abandoned"
		if intent.LastError != nil && *intent.LastError != "" {
			msg = *intent.LastError
		}
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeConflict, msg)
	}

	order, err := s.run(ctx, intent)
	if order == nil {
		return OrderDTO{}, err
	}
	s.recordOutcome(metrics.OutcomeReplayed)
	return FromModel(*order), nil
}

// run executes the remaining steps of an intent. The returned order is non-nil
// once the order row exists, even when a later step failed.
func (s *service) run(ctx context.Context, intent *models.PlacementIntent) (*models.Order, error) {
	order, err := s.createOrder(ctx, intent)
	if err != nil {
		s.stepFailed(ctx, intent, err)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil, err
	}

	steps := []func(context.Context, *models.PlacementIntent) error{
		s.applyPoints,
		s.checkIssuance,
		s.complete,
	}
	if order.Status == enums.OrderStatusPending {
		// accrual waits for the payment to settle, see accrueTx
		steps = steps[2:]
	}
	for _, step := range steps {
		if err := step(ctx, intent); err != nil {
			s.stepFailed(ctx, intent, err)
			return order, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finish placement")
		}
	}
	return order, nil
}

// createOrder writes the order and, for a matched loyalty code, redeems it with
// a compare-and-swap in the same transaction.
func (s *service) createOrder(ctx context.Context, intent *models.PlacementIntent) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.intents.WithTx(tx).Claim(ctx, intent.ID, stepOrderCreated)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if !won {
			order, err = repo.FindByID(ctx, intent.ID)
			return err
		}

		draft := intent.Draft
		draft.ID = intent.ID
		draft.UserID = intent.UserID
		draft.CreatedAt = time.Time{}
		draft.UpdatedAt = time.Time{}

		if intent.MatchedCodeID != nil {
			ok, err := s.codes.WithTx(tx).Redeem(ctx, *intent.MatchedCodeID, intent.UserID, intent.ID, s.now().UTC())
			if err != nil {
				return err
			}
			if !ok {
				return errCodeAlreadyUsed
			}
		}
		if err := repo.Create(ctx, &draft); err != nil {
			if db.IsUniqueViolation(err, "orders_payment_ref_key") {
				return errPaymentReused
			}
			return err
		}
		if err := s.emitPlacementEvents(ctx, tx, intent, &draft); err != nil {
			return err
		}
		order = &draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) applyPoints(ctx context.Context, intent *models.PlacementIntent) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.applyPointsTx(ctx, tx, intent)
	})
}

func (s *service) applyPointsTx(ctx context.Context, tx *gorm.DB, intent *models.PlacementIntent) error {
	won, err := s.intents.WithTx(tx).Claim(ctx, intent.ID, stepPointsApplied)
	if err != nil || !won {
		return err
	}
	if intent.PointsDelta <= 0 {
		return nil
	}
	_, err = s.users.WithTx(tx).AddPoints(ctx, intent.UserID, intent.PointsDelta)
	return err
}

func (s *service) checkIssuance(ctx context.Context, intent *models.PlacementIntent) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.checkIssuanceTx(ctx, tx, intent)
	})
}

// checkIssuanceTx grants the threshold code. Orders that redeemed a code or
// accrued nothing never issue one.
func (s *service) checkIssuanceTx(ctx context.Context, tx *gorm.DB, intent *models.PlacementIntent) error {
	won, err := s.intents.WithTx(tx).Claim(ctx, intent.ID, stepIssuanceChecked)
	if err != nil || !won {
		return err
	}
	if intent.PointsDelta <= 0 || intent.MatchedCodeID != nil || s.threshold <= 0 {
		return nil
	}
	user, err := s.users.WithTx(tx).FindByID(ctx, intent.UserID)
	if err != nil {
		return err
	}
	if user.LoyaltyPoints < s.threshold {
		return nil
	}
	code, err := s.issuer.IssueThresholdCode(ctx, tx, intent.UserID, intent.ID, user.LoyaltyPoints)
	if err != nil || code == nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"user_id": intent.UserID,
			"code_id": code.ID.String(),
			"points":  user.LoyaltyPoints,
		}), "loyalty threshold code issued")
	}
	return s.intents.WithTx(tx).Update(ctx, intent.ID, map[string]any{"issued_code_id": code.ID})
}

// accrueTx applies the loyalty steps of the intent behind orderID once the
// order is paid. Orders without an intent, such as seeded ones, accrue
// nothing; the step flags make a second call a no-op.
func (s *service) accrueTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	intent, err := s.intents.WithTx(tx).FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := s.applyPointsTx(ctx, tx, intent); err != nil {
		return err
	}
	return s.checkIssuanceTx(ctx, tx, intent)
}

func (s *service) complete(ctx context.Context, intent *models.PlacementIntent) error {
	now := s.now().UTC()
	return s.intents.Update(ctx, intent.ID, map[string]any{
		"status":       enums.PlacementStatusCompleted,
		"completed_at": now,
		"last_error":   nil,
	})
}

func (s *service) stepFailed(ctx context.Context, intent *models.PlacementIntent, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		if err == errCodeAlreadyUsed && s.metrics != nil {
			s.metrics.IncRedemptionConflict()
		}
		s.recordOutcome(metrics.OutcomeConflict)
		if aerr := s.abandon(ctx, intent, err.Error()); aerr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "intent_id", intent.ID.String()), "abandon placement failed", aerr)
		}
		return
	}
	if rerr := s.intents.RecordFailure(ctx, intent.ID, err.Error()); rerr != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "intent_id", intent.ID.String()), "record placement failure failed", rerr)
	}
	if s.logg != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"intent_id": intent.ID.String(),
			"user_id":   intent.UserID,
		}), "placement step failed", err)
	}
}

func (s *service) abandon(ctx context.Context, intent *models.PlacementIntent, reason string) error {
	return s.intents.Update(ctx, intent.ID, map[string]any{
		"status":     enums.PlacementStatusAbandoned,
		"last_error": reason,
	})
}

// settle decides the initial order status. Zero totals and full discounts are
// paid outright; otherwise the processor must report the payment settled or
// still processing.
func (s *service) settle(ctx context.Context, checkout payments.Checkout, paymentRef string) (enums.OrderStatus, *string, error) {
	if !checkout.RequiresPayment() {
		return enums.OrderStatusPaid, nil, nil
	}
	if paymentRef == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodePayment, "payment is required for this order")
	}
	state, err := s.payments.VerifyPayment(ctx, paymentRef, checkout.Request.UserID, checkout.Quote.Total)
	if err != nil {
		return "", nil, err
	}
	ref := paymentRef
	switch {
	case state.Settled():
		return enums.OrderStatusPaid, &ref, nil
	case state.Outstanding():
		return enums.OrderStatusPending, &ref, nil
	default:
		return "", nil, pkgerrors.New(pkgerrors.CodePayment, "payment was not completed").
			WithDetails(map[string]any{"state": string(state)})
	}
}

func (s *service) emitPlacementEvents(ctx context.Context, tx *gorm.DB, intent *models.PlacementIntent, order *models.Order) error {
	if err := s.emitPlaced(ctx, tx, order, intent.DiscountSource, intent.PointsDelta, outbox.ActorCustomer); err != nil {
		return err
	}
	actor := outbox.Customer(order.UserID)
	if intent.MatchedCodeID != nil {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLoyaltyCodeRedeemed,
			AggregateType: enums.AggregateLoyaltyCode,
			AggregateID:   intent.MatchedCodeID.String(),
			Actor:         actor,
			Data: payloads.LoyaltyCodeRedeemedEvent{
				CodeID:      *intent.MatchedCodeID,
				OwnerUserID: order.UserID,
				OrderID:     order.ID,
			},
		}); err != nil {
			return err
		}
	}
	if intent.DiscountSource == enums.DiscountSourceMaster {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"user_id":  order.UserID,
				"waived":   order.Subtotal,
			}), "master discount code used")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMasterCodeUsed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID.String(),
			Actor:         actor,
			Data: payloads.MasterCodeUsedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				Waived:  order.Subtotal,
			},
		})
	}
	return nil
}

func (s *service) clearCart(ctx context.Context, userID string) {
	if s.cart == nil {
		return
	}
	if err := s.cart.Clear(ctx, userID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		}), "cart clear after placement failed")
	}
}

func (s *service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.IncPlacement(outcome)
	}
}

func newIntent(checkout payments.Checkout, key string, paymentRef *string, status enums.OrderStatus) *models.PlacementIntent {
	req := checkout.Request
	quote := checkout.Quote
	id := uuid.New()

	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Size:      line.Size,
			PriceRef:  line.PriceRef,
		})
	}

	// Points equal the stored price total, the amount the customer pays.
	// Full discounts accrue nothing.
	var delta int64
	if quote.DiscountPercent < 100 {
		delta = quote.Total
	}

	return &models.PlacementIntent{
		ID:             id,
		UserID:         req.UserID,
		IdempotencyKey: key,
		PaymentRef:     paymentRef,
		Status:         enums.PlacementStatusInitiated,
		Draft: models.Order{
			ID:              id,
			UserID:          req.UserID,
			Items:           items,
			ShippingMethod:  req.ShippingMethod,
			Shipping:        req.ShippingDetails(),
			Customer:        req.Customer,
			BillingAddress:  req.BillingAddress,
			Subtotal:        quote.Subtotal,
			DiscountPercent: quote.DiscountPercent,
			DiscountCode:    checkout.DiscountCode(),
			ShippingFee:     quote.ShippingFee,
			PriceTotal:      quote.Total,
			PaymentRef:      paymentRef,
			Status:          status,
		},
		DiscountSource: checkout.Discount.Source,
		MatchedCodeID:  checkout.Discount.MatchedCodeID,
		PointsDelta:    delta,
	}
}

func outcomeFor(order *models.Order) string {
	switch {
	case order.DiscountPercent == 100 || order.PriceTotal == 0:
		return metrics.OutcomeWaived
	case order.Status == enums.OrderStatusPending:
		return metrics.OutcomePending
	default:
		return metrics.OutcomePaid
	}
}
