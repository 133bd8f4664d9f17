package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type discriminators as they appear on the wire.
const (
	EventTypeConsultationCreated     = "CONSULTATION_CREATED"
	EventTypeConsultationRescheduled = "CONSULTATION_RESCHEDULED"
	EventTypeConsultationCancelled   = "CONSULTATION_CANCELLED"
)

// Event is a domain event: an immutable fact describing a completed state
// change. Every event carries the common envelope fields.
type Event interface {
	ID() string
	Type() string
	OccurredOn() time.Time
}

// Envelope holds the fields shared by all event variants. EventID is a
// UUIDv4 stamped at construction and doubles as the broker message key.
type Envelope struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredOn"`
}

func newEnvelope(eventType string) Envelope {
	return Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now(),
	}
}

func (e Envelope) ID() string            { return e.EventID }
func (e Envelope) Type() string          { return e.EventType }
func (e Envelope) OccurredOn() time.Time { return e.OccurredAt }

// ConsultationCreated is emitted after a consultation is scheduled.
type ConsultationCreated struct {
	Envelope
	ConsultationID uint      `json:"consultationId"`
	PatientID      uint      `json:"patientId"`
	DoctorID       uint      `json:"doctorId"`
	ScheduledAt    time.Time `json:"scheduledDateTime"`
	PatientEmail   string    `json:"patientEmail"`
	PatientName    string    `json:"patientName"`
	DoctorName     string    `json:"doctorName"`
}

// NewConsultationCreated stamps a fresh envelope and fills the payload.
func NewConsultationCreated(consultationID, patientID, doctorID uint, scheduledAt time.Time, patientEmail, patientName, doctorName string) *ConsultationCreated {
	return &ConsultationCreated{
		Envelope:       newEnvelope(EventTypeConsultationCreated),
		ConsultationID: consultationID,
		PatientID:      patientID,
		DoctorID:       doctorID,
		ScheduledAt:    scheduledAt,
		PatientEmail:   patientEmail,
		PatientName:    patientName,
		DoctorName:     doctorName,
	}
}

// ConsultationRescheduled is emitted after a consultation moves to a new
// time. It carries both the old and new instants for the notification.
type ConsultationRescheduled struct {
	Envelope
	ConsultationID uint      `json:"consultationId"`
	PatientID      uint      `json:"patientId"`
	OldDateTime    time.Time `json:"oldDateTime"`
	NewDateTime    time.Time `json:"newDateTime"`
	PatientEmail   string    `json:"patientEmail"`
	PatientName    string    `json:"patientName"`
	DoctorName     string    `json:"doctorName"`
}

// NewConsultationRescheduled stamps a fresh envelope and fills the payload.
func NewConsultationRescheduled(consultationID, patientID uint, oldDateTime, newDateTime time.Time, patientEmail, patientName, doctorName string) *ConsultationRescheduled {
	return &ConsultationRescheduled{
		Envelope:       newEnvelope(EventTypeConsultationRescheduled),
		ConsultationID: consultationID,
		PatientID:      patientID,
		OldDateTime:    oldDateTime,
		NewDateTime:    newDateTime,
		PatientEmail:   patientEmail,
		PatientName:    patientName,
		DoctorName:     doctorName,
	}
}

// ConsultationCancelled is emitted after a consultation is cancelled.
type ConsultationCancelled struct {
	Envelope
	ConsultationID uint   `json:"consultationId"`
	PatientID      uint   `json:"patientId"`
	Reason         string `json:"reason"`
	PatientEmail   string `json:"patientEmail"`
	PatientName    string `json:"patientName"`
}

// NewConsultationCancelled stamps a fresh envelope and fills the payload.
func NewConsultationCancelled(consultationID, patientID uint, reason, patientEmail, patientName string) *ConsultationCancelled {
	return &ConsultationCancelled{
		Envelope:       newEnvelope(EventTypeConsultationCancelled),
		ConsultationID: consultationID,
		PatientID:      patientID,
		Reason:         reason,
		PatientEmail:   patientEmail,
		PatientName:    patientName,
	}
}

// EncodeEvent serializes an event to its wire format. The discriminator
// travels inside the payload, so the receiver needs nothing but the bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeEvent reconstructs a concrete event variant from its wire format.
// The returned Event is one of the *ConsultationCreated,
// *ConsultationRescheduled or *ConsultationCancelled types. An unknown
// discriminator yields ErrUnknownEventType; the raw envelope is returned
// alongside so callers can still log it.
func DecodeEvent(payload []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	switch env.EventType {
	case EventTypeConsultationCreated:
		var event ConsultationCreated
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	case EventTypeConsultationRescheduled:
		var event ConsultationRescheduled
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	case EventTypeConsultationCancelled:
		var event ConsultationCancelled
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	default:
		return env, &UnknownEventTypeError{EventType: env.EventType}
	}
}

// UnknownEventTypeError reports a discriminator no handler is registered
// for. Consumers acknowledge such messages instead of redelivering them.
type UnknownEventTypeError struct {
	EventType string
}

func (e *UnknownEventTypeError) Error() string {
	return "unknown event type: " + e.EventType
}
