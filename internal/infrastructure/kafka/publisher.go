package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fintrack/loanbook/pkg/events"
	pkgkafka "github.com/fintrack/loanbook/pkg/kafka"
)

// messageWriter is the part of *pkgkafka.Producer the publisher needs.
type messageWriter interface {
	Publish(ctx context.Context, topic string, msgs ...pkgkafka.Message) error
}

// EventPublisher implements port.EventPublisher by writing events to Kafka.
// Events are keyed by loan id so a loan's history stays on one partition.
type EventPublisher struct {
	producer messageWriter
	logger   *slog.Logger
	topic    string
}

func NewEventPublisher(producer messageWriter, topic string, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish serialises and sends domain events to Kafka.
func (p *EventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(evts))
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"owner_id", evt.OwnerID(),
			"topic", p.topic,
			"payload_size", len(payload),
		)

		messages = append(messages, pkgkafka.Message{
			Key:     []byte(evt.AggregateID()),
			Value:   payload,
			Headers: events.Headers(evt),
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish events to topic %s: %w", p.topic, err)
	}
	return nil
}
