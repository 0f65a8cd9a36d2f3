package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fintrack/loanbook/pkg/events"
)

// EventLog is the port.EventPublisher used when no Kafka brokers are
// configured. It logs each event and keeps it for inspection.
type EventLog struct {
	mu     sync.Mutex
	logger *slog.Logger
	events []events.DomainEvent
}

func NewEventLog(logger *slog.Logger) *EventLog {
	return &EventLog{logger: logger}
}

func (l *EventLog) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, evt := range evts {
		l.logger.InfoContext(ctx, "domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"owner_id", evt.OwnerID(),
		)
	}
	l.events = append(l.events, evts...)
	return nil
}

// Events returns a copy of everything published so far.
func (l *EventLog) Events() []events.DomainEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.DomainEvent, len(l.events))
	copy(out, l.events)
	return out
}
