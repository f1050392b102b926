package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/jirivrbic-boss/extroworld/pkg/redis"
)

// EventLedger records which Stripe events were applied. Stripe retries a
// delivery for up to three days, so the ledger should outlive that window.
type EventLedger struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewEventLedger(store redis.IdempotencyStore, ttl time.Duration, scope string) (*EventLedger, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	case scope == "":
		return nil, errors.New("scope is required")
	}
	return &EventLedger{store: store, ttl: ttl, scope: scope}, nil
}

// Claim reports true the first time event is seen. Later deliveries of the
// same id get false until the claim expires or is forgotten.
func (l *EventLedger) Claim(ctx context.Context, event stripe.Event) (bool, error) {
	if event.ID == "" {
		return false, errors.New("event id is required")
	}
	claimed, err := l.store.SetNX(ctx, l.key(event.ID), string(event.Type), l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim stripe event %s: %w", event.ID, err)
	}
	return claimed, nil
}

// Forget drops a claim so Stripe's next retry is applied.
func (l *EventLedger) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return l.store.Del(ctx, l.key(eventID))
}

func (l *EventLedger) key(eventID string) string {
	return l.store.IdempotencyKey(l.scope, eventID)
}
