package notification

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/domain"
	"example.com/hospital/services/scheduling/internal/messaging"
)

// Dispatcher routes consultation events to the notification sink. Each
// message goes to exactly one handler chosen by the eventType
// discriminator. There is no per-event idempotency tracking: a
// redelivered event produces a second notification.
type Dispatcher struct {
	sink Sink
}

// NewDispatcher creates a dispatcher over the given sink.
func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink}
}

// Run subscribes to the consultation topic as the notification consumer
// group and blocks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, broker messaging.Broker) error {
	return broker.Subscribe(ctx, messaging.Topic, messaging.ConsumerGroup, d.Handle)
}

// Handle processes one delivery. A sink failure is returned so the broker
// leaves the message unacknowledged and redelivers it; an unknown
// discriminator is logged and acknowledged so it is never redelivered.
func (d *Dispatcher) Handle(ctx context.Context, msg messaging.Message) error {
	event, err := domain.DecodeEvent(msg.Payload)
	if err != nil {
		var unknown *domain.UnknownEventTypeError
		if errors.As(err, &unknown) {
			log.Warn().
				Str("event_type", unknown.EventType).
				Str("key", msg.Key).
				Int64("offset", msg.Offset).
				Msg("Unrecognized event type, acknowledging")
			return nil
		}
		return err
	}

	log.Info().
		Str("event_type", event.Type()).
		Str("event_id", event.ID()).
		Str("topic", msg.Topic).
		Int64("offset", msg.Offset).
		Msg("Event received")

	switch e := event.(type) {
	case *domain.ConsultationCreated:
		return d.handleCreated(ctx, e)
	case *domain.ConsultationRescheduled:
		return d.handleRescheduled(ctx, e)
	case *domain.ConsultationCancelled:
		return d.handleCancelled(ctx, e)
	default:
		// DecodeEvent only returns the three variants above.
		log.Warn().Str("event_type", event.Type()).Msg("No handler for event, acknowledging")
		return nil
	}
}

func (d *Dispatcher) handleCreated(ctx context.Context, event *domain.ConsultationCreated) error {
	log.Info().
		Uint("consultation_id", event.ConsultationID).
		Str("patient", event.PatientName).
		Str("doctor", event.DoctorName).
		Time("scheduled_at", event.ScheduledAt).
		Msg("Processing consultation creation")

	return d.sink.Send(ctx, event.PatientEmail, SubjectScheduled, renderScheduled(event))
}

func (d *Dispatcher) handleRescheduled(ctx context.Context, event *domain.ConsultationRescheduled) error {
	log.Info().
		Uint("consultation_id", event.ConsultationID).
		Str("patient", event.PatientName).
		Time("old_time", event.OldDateTime).
		Time("new_time", event.NewDateTime).
		Msg("Processing consultation rescheduling")

	return d.sink.Send(ctx, event.PatientEmail, SubjectRescheduled, renderRescheduled(event))
}

func (d *Dispatcher) handleCancelled(ctx context.Context, event *domain.ConsultationCancelled) error {
	log.Info().
		Uint("consultation_id", event.ConsultationID).
		Str("patient", event.PatientName).
		Str("reason", event.Reason).
		Msg("Processing consultation cancellation")

	return d.sink.Send(ctx, event.PatientEmail, SubjectCancelled, renderCancelled(event))
}
