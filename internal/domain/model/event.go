package model

import (
	"time"

	"github.com/google/uuid"
)

// Event domains.
const (
	EventDomainOffer = "offer"
	EventDomainOrder = "order"
)

// Envelope is the realtime event published after a state change.
type Envelope struct {
	EventID     uuid.UUID `json:"eventId"`
	Domain      string    `json:"domain"`
	Action      string    `json:"action"`
	EntityID    uuid.UUID `json:"entityId"`
	ActorUserID uuid.UUID `json:"actorUserId"`
	Payload     any       `json:"payload,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

var eventNamespace = uuid.MustParse("5b0c7f3e-9a3d-4d0e-8f61-2f1b8a7c4e90")

// NewEnvelope builds an envelope whose id is stable for the same transition.
func NewEnvelope(domain, action string, entityID, actor uuid.UUID, payload any, at time.Time) Envelope {
	seed := domain + ":" + action + ":" + entityID.String() + ":" + at.UTC().Format(time.RFC3339Nano)
	return Envelope{
		EventID:     uuid.NewSHA1(eventNamespace, []byte(seed)),
		Domain:      domain,
		Action:      action,
		EntityID:    entityID,
		ActorUserID: actor,
		Payload:     payload,
		OccurredAt:  at,
	}
}
