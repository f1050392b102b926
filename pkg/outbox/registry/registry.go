// Package registry maps outbox event types to the aggregate they belong to,
// the topic they are published on and the payload struct they decode into.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// ResolvedEvent is a validated outbox row with its typed payload.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every
// attempt, such as an unknown type or a payload that does not decode.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

func decodeInto[T any]() func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// NewEventRegistry wires every storefront event to the domain topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, errors.New("domain topic is required")
	}
	descriptors := []EventDescriptor{
		{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, decode: decodeInto[payloads.OrderPlacedEvent]()},
		{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, decode: decodeInto[payloads.OrderPaidEvent]()},
		{EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, decode: decodeInto[payloads.OrderStatusChangedEvent]()},
		{EventType: enums.EventMasterCodeUsed, AggregateType: enums.AggregateOrder, decode: decodeInto[payloads.MasterCodeUsedEvent]()},
		{EventType: enums.EventLoyaltyCodeIssued, AggregateType: enums.AggregateLoyaltyCode, decode: decodeInto[payloads.LoyaltyCodeIssuedEvent]()},
		{EventType: enums.EventLoyaltyCodeRedeemed, AggregateType: enums.AggregateLoyaltyCode, decode: decodeInto[payloads.LoyaltyCodeRedeemedEvent]()},
		{EventType: enums.EventLoyaltyPointsMoved, AggregateType: enums.AggregateUser, decode: decodeInto[payloads.LoyaltyPointsAdjustedEvent]()},
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		desc.Topic = cfg.DomainTopic
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every error it returns is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == "":
		return nil, permanent("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, permanent("decode %s envelope: %w", event.EventType, err)
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, permanent("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
