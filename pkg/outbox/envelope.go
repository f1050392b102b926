package outbox

import (
	"encoding/json"
	"errors"
	"time"
)

const envelopeVersion = 1

// Actor roles recorded on envelopes.
const (
	ActorCustomer = "customer"
	ActorAdmin    = "admin"
	ActorSystem   = "system"
)

// ActorRef identifies who caused the event. UserID is the customer uid; it is
// empty for admin and system actors.
type ActorRef struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role"`
}

func Customer(uid string) *ActorRef { return &ActorRef{UserID: uid, Role: ActorCustomer} }
func Admin() *ActorRef              { return &ActorRef{Role: ActorAdmin} }
func System() *ActorRef             { return &ActorRef{Role: ActorSystem} }

// ActorFor maps a role name onto a reference, attaching uid for customers.
func ActorFor(role, uid string) *ActorRef {
	switch role {
	case ActorCustomer:
		return Customer(uid)
	case ActorAdmin:
		return Admin()
	default:
		return System()
	}
}

// PayloadEnvelope is what outbox_events.payload holds. Data is the event
// specific body decoded by the registry.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var errEmptyEnvelope = errors.New("envelope carries no data")

// DecodeEnvelope parses a stored payload and rejects envelopes whose data is
// missing or null.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return PayloadEnvelope{}, errEmptyEnvelope
	}
	return env, nil
}
