package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/domain"
)

// Topic is the single logical topic all consultation events travel
// through.
const Topic = "consultation-events"

// ConsumerGroup is the consumer group name of the notification pipeline.
const ConsumerGroup = "notification-service"

const publishTimeout = 10 * time.Second

// EventPublisher sends domain events to the broker, keyed by the event's
// own id. Publishing is fire-and-forget: the call returns immediately and
// a failed send is logged, not retried or surfaced, so a scheduling
// operation is never blocked or failed by the notification pipeline.
type EventPublisher struct {
	broker Broker
	topic  string
}

// NewEventPublisher creates a publisher bound to the consultation topic.
func NewEventPublisher(broker Broker) *EventPublisher {
	return &EventPublisher{broker: broker, topic: Topic}
}

// Publish serializes the event and hands it to the broker asynchronously.
// Keying by eventId spreads events for the same consultation across
// partitions, so cross-event ordering is not guaranteed.
func (p *EventPublisher) Publish(event domain.Event) {
	payload, err := domain.EncodeEvent(event)
	if err != nil {
		log.Error().Err(err).
			Str("event_type", event.Type()).
			Str("event_id", event.ID()).
			Msg("Failed to serialize event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		offset, err := p.broker.Send(ctx, p.topic, event.ID(), payload)
		if err != nil {
			log.Error().Err(err).
				Str("event_type", event.Type()).
				Str("event_id", event.ID()).
				Str("topic", p.topic).
				Msg("Failed to publish event")
			return
		}

		log.Info().
			Str("event_type", event.Type()).
			Str("event_id", event.ID()).
			Str("topic", p.topic).
			Int64("offset", offset).
			Msg("Event published")
	}()
}
