package events

import (
	"testing"
	"time"
)

func TestNewBaseEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	event := NewBaseEvent("loan.registered", "loan-123", "Loan", "user-456", at)

	if event.EventID() == "" {
		t.Error("expected non-empty event ID")
	}
	if event.EventType() != "loan.registered" {
		t.Errorf("expected event type %q, got %q", "loan.registered", event.EventType())
	}
	if event.AggregateID() != "loan-123" {
		t.Errorf("expected aggregate ID %q, got %q", "loan-123", event.AggregateID())
	}
	if event.AggregateType() != "Loan" {
		t.Errorf("expected aggregate type %q, got %q", "Loan", event.AggregateType())
	}
	if event.OwnerID() != "user-456" {
		t.Errorf("expected owner ID %q, got %q", "user-456", event.OwnerID())
	}
	if !event.OccurredAt().Equal(at) || event.OccurredAt().Location() != time.UTC {
		t.Errorf("expected occurredAt %v in UTC, got %v", at, event.OccurredAt())
	}
}

func TestNewBaseEventUniqueIDs(t *testing.T) {
	a := NewBaseEvent("x", "agg", "Loan", "", time.Now())
	b := NewBaseEvent("x", "agg", "Loan", "", time.Now())
	if a.EventID() == b.EventID() {
		t.Error("expected distinct event IDs")
	}
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestHeaders(t *testing.T) {
	event := NewBaseEvent("loan.paid_off", "loan-1", "Loan", "user-1", time.Now())
	h := Headers(event)

	if h["event_id"] != event.EventID() {
		t.Errorf("expected event_id header %q, got %q", event.EventID(), h["event_id"])
	}
	if h["event_type"] != "loan.paid_off" {
		t.Errorf("unexpected event_type header %q", h["event_type"])
	}
	if h["owner_id"] != "user-1" {
		t.Errorf("unexpected owner_id header %q", h["owner_id"])
	}
	if _, err := time.Parse(time.RFC3339Nano, h["occurred_at"]); err != nil {
		t.Errorf("occurred_at header not RFC3339: %v", err)
	}
}
