package domain

import (
	"time"
)

// ConsultationStatus is the lifecycle state of a consultation.
type ConsultationStatus string

const (
	StatusScheduled ConsultationStatus = "SCHEDULED"
	StatusCompleted ConsultationStatus = "COMPLETED"
	StatusCancelled ConsultationStatus = "CANCELLED"
)

// Consultation is the scheduling aggregate root. A consultation starts
// SCHEDULED and moves at most once into COMPLETED or CANCELLED; neither
// terminal state has a transition out. COMPLETED is set by the clinical
// completion workflow, never by the operations defined here.
//
// The zero ID means the consultation has not been persisted yet; the
// storage layer assigns the ID on first save.
type Consultation struct {
	ID              uint
	PatientID       uint
	DoctorID        uint
	ScheduledAt     time.Time
	ActualStartTime *time.Time
	ActualEndTime   *time.Time
	Status          ConsultationStatus
	Notes           string
	Symptoms        string
	Diagnosis       string
	Prescription    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewConsultation creates a SCHEDULED consultation. Both ids are required
// and the scheduled time must be strictly in the future.
func NewConsultation(patientID, doctorID uint, scheduledAt time.Time) (*Consultation, error) {
	if patientID == 0 {
		return nil, NewValidationError("patient id is required")
	}
	if doctorID == 0 {
		return nil, NewValidationError("doctor id is required")
	}
	if err := validateScheduledAt(scheduledAt); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Consultation{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: scheduledAt,
		Status:      StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateScheduledAt(t time.Time) error {
	if t.IsZero() {
		return NewValidationError("consultation date and time are required")
	}
	if !t.After(time.Now()) {
		return NewValidationError("cannot schedule consultation in the past")
	}
	return nil
}

// Reschedule moves the consultation to a new time. Terminal states cannot
// be rescheduled. Detecting a no-op (new time equals the current one) is
// the caller's job; when invoked, the mutation always happens.
func (c *Consultation) Reschedule(newTime time.Time) error {
	if c.Status == StatusCompleted {
		return NewStateError("cannot reschedule completed consultation")
	}
	if c.Status == StatusCancelled {
		return NewStateError("cannot reschedule cancelled consultation")
	}
	if err := validateScheduledAt(newTime); err != nil {
		return err
	}

	c.ScheduledAt = newTime
	c.UpdatedAt = time.Now()
	return nil
}

// Cancel marks the consultation CANCELLED. A completed consultation
// cannot be cancelled; cancelling an already-cancelled one is allowed and
// simply re-applies the reason. A nil reason leaves the notes untouched;
// an empty string is stored verbatim.
func (c *Consultation) Cancel(reason *string) error {
	if c.Status == StatusCompleted {
		return NewStateError("cannot cancel completed consultation")
	}

	c.Status = StatusCancelled
	if reason != nil {
		c.Notes = *reason
	}
	c.UpdatedAt = time.Now()
	return nil
}

// IsActive reports whether the consultation has not been cancelled.
func (c *Consultation) IsActive() bool {
	return c.Status != StatusCancelled
}

// IsCompleted reports whether the consultation has concluded.
func (c *Consultation) IsCompleted() bool {
	return c.Status == StatusCompleted
}

// CanBeRescheduled reports whether Reschedule would be legal.
func (c *Consultation) CanBeRescheduled() bool {
	return c.Status == StatusScheduled
}

// CanBeCancelled reports whether Cancel would be legal.
func (c *Consultation) CanBeCancelled() bool {
	return c.Status != StatusCompleted && c.Status != StatusCancelled
}

// Equal compares consultations by domain identity: storage id plus the
// scheduling triple, not storage id alone.
func (c *Consultation) Equal(other *Consultation) bool {
	if other == nil {
		return false
	}
	return c.ID == other.ID &&
		c.PatientID == other.PatientID &&
		c.DoctorID == other.DoctorID &&
		c.ScheduledAt.Equal(other.ScheduledAt)
}
