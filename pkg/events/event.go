package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface all domain events must implement.
type DomainEvent interface {
	EventID() string
	EventType() string
	AggregateID() string
	AggregateType() string
	OwnerID() string
	OccurredAt() time.Time
}

// BaseEvent provides a default implementation of DomainEvent. Concrete events
// embed it and add their own JSON payload fields.
type BaseEvent struct {
	id            string
	eventType     string
	aggregateID   string
	aggregateType string
	ownerID       string
	occurredAt    time.Time
}

// NewBaseEvent creates a new BaseEvent with a generated id, stamped at the given time.
func NewBaseEvent(eventType, aggregateID, aggregateType, ownerID string, at time.Time) BaseEvent {
	return BaseEvent{
		id:            uuid.New().String(),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		ownerID:       ownerID,
		occurredAt:    at.UTC(),
	}
}

// EventID returns the unique identifier for this event.
func (e BaseEvent) EventID() string { return e.id }

// EventType returns the type name of this event.
func (e BaseEvent) EventType() string { return e.eventType }

// AggregateID returns the identifier of the aggregate that produced this event.
func (e BaseEvent) AggregateID() string { return e.aggregateID }

// AggregateType returns the type name of the aggregate that produced this event.
func (e BaseEvent) AggregateType() string { return e.aggregateType }

// OwnerID returns the user that owns the aggregate.
func (e BaseEvent) OwnerID() string { return e.ownerID }

// OccurredAt returns the time at which this event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }

// Headers renders the envelope metadata carried alongside the payload on the wire.
func Headers(e DomainEvent) map[string]string {
	return map[string]string{
		"event_id":       e.EventID(),
		"event_type":     e.EventType(),
		"aggregate_type": e.AggregateType(),
		"owner_id":       e.OwnerID(),
		"occurred_at":    e.OccurredAt().Format(time.RFC3339Nano),
	}
}
