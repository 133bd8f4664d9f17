// Package scheduling implements the consultation use cases: schedule,
// reschedule, cancel and the read queries. Each mutation persists the
// aggregate first and then hands the resulting event to the publisher;
// event delivery never influences the outcome of the operation.
package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/domain"
	"example.com/hospital/services/scheduling/internal/repository"
)

// DefaultCancelReason is recorded when a cancellation arrives without a
// reason. An explicitly empty reason is kept as-is.
const DefaultCancelReason = "Consultation cancelled"

// EventPublisher emits a domain event after a successful state change.
// Implementations must not block or fail the caller.
type EventPublisher interface {
	Publish(event domain.Event)
}

// Service wires the consultation use cases together.
type Service struct {
	consultations repository.ConsultationRepository
	users         repository.UserDirectory
	conflicts     *ConflictPolicy
	publisher     EventPublisher
}

// NewService creates the scheduling service.
func NewService(consultations repository.ConsultationRepository, users repository.UserDirectory, publisher EventPublisher) *Service {
	return &Service{
		consultations: consultations,
		users:         users,
		conflicts:     NewConflictPolicy(consultations),
		publisher:     publisher,
	}
}

// Schedule books a consultation for a patient with a doctor and emits a
// ConsultationCreated event.
func (s *Service) Schedule(ctx context.Context, patientID, doctorID uint, scheduledAt time.Time) (*domain.Consultation, error) {
	patient, err := s.users.FindByID(ctx, patientID)
	if err != nil {
		return nil, asNotFound(err, "Patient not found")
	}
	if patient.Role != domain.RolePatient {
		return nil, domain.NewValidationError("Specified user is not a patient")
	}

	doctor, err := s.users.FindByID(ctx, doctorID)
	if err != nil {
		return nil, asNotFound(err, "Doctor not found")
	}
	if doctor.Role != domain.RoleDoctor {
		return nil, domain.NewValidationError("Specified user is not a doctor")
	}

	conflict, err := s.conflicts.HasConflict(ctx, doctorID, scheduledAt)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.NewConflictError("Doctor already has a consultation scheduled at this time")
	}

	consultation, err := domain.NewConsultation(patientID, doctorID, scheduledAt)
	if err != nil {
		return nil, err
	}

	saved, err := s.consultations.Save(ctx, consultation)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("consultation_id", saved.ID).
		Uint("patient_id", patientID).
		Uint("doctor_id", doctorID).
		Time("scheduled_at", scheduledAt).
		Msg("Consultation scheduled")

	s.publisher.Publish(domain.NewConsultationCreated(
		saved.ID,
		patient.ID,
		doctor.ID,
		saved.ScheduledAt,
		patient.Email,
		patient.Name,
		doctor.Name,
	))

	return saved, nil
}

// Reschedule moves a consultation to a new time. When the requested time
// equals the current one, this is a no-op save: no conflict check runs,
// the aggregate is not mutated and no event is emitted.
func (s *Service) Reschedule(ctx context.Context, consultationID uint, newTime time.Time) (*domain.Consultation, error) {
	consultation, err := s.consultations.FindByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	changed := !consultation.ScheduledAt.Equal(newTime)

	if changed {
		conflict, err := s.conflicts.HasConflict(ctx, consultation.DoctorID, newTime)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.NewConflictError("Doctor already has a consultation scheduled at this time")
		}
	}

	patient, err := s.users.FindByID(ctx, consultation.PatientID)
	if err != nil {
		return nil, asNotFound(err, "Patient not found")
	}
	doctor, err := s.users.FindByID(ctx, consultation.DoctorID)
	if err != nil {
		return nil, asNotFound(err, "Doctor not found")
	}

	oldTime := consultation.ScheduledAt

	if changed {
		if err := consultation.Reschedule(newTime); err != nil {
			return nil, err
		}
	}

	saved, err := s.consultations.Save(ctx, consultation)
	if err != nil {
		return nil, err
	}

	if changed {
		log.Info().
			Uint("consultation_id", saved.ID).
			Time("old_time", oldTime).
			Time("new_time", saved.ScheduledAt).
			Msg("Consultation rescheduled")

		s.publisher.Publish(domain.NewConsultationRescheduled(
			saved.ID,
			patient.ID,
			oldTime,
			saved.ScheduledAt,
			patient.Email,
			patient.Name,
			doctor.Name,
		))
	}

	return saved, nil
}

// Cancel marks a consultation cancelled and emits a ConsultationCancelled
// event. A nil reason is replaced with DefaultCancelReason before it
// reaches the aggregate; an empty string is passed through untouched.
func (s *Service) Cancel(ctx context.Context, consultationID uint, reason *string) error {
	consultation, err := s.consultations.FindByID(ctx, consultationID)
	if err != nil {
		return err
	}

	patient, err := s.users.FindByID(ctx, consultation.PatientID)
	if err != nil {
		return asNotFound(err, "Patient not found")
	}

	if reason == nil {
		defaultReason := DefaultCancelReason
		reason = &defaultReason
	}

	if err := consultation.Cancel(reason); err != nil {
		return err
	}

	saved, err := s.consultations.Save(ctx, consultation)
	if err != nil {
		return err
	}

	log.Info().
		Uint("consultation_id", saved.ID).
		Str("reason", *reason).
		Msg("Consultation cancelled")

	s.publisher.Publish(domain.NewConsultationCancelled(
		saved.ID,
		patient.ID,
		*reason,
		patient.Email,
		patient.Name,
	))

	return nil
}

// Get returns a single consultation.
func (s *Service) Get(ctx context.Context, consultationID uint) (*domain.Consultation, error) {
	return s.consultations.FindByID(ctx, consultationID)
}

// List returns every consultation.
func (s *Service) List(ctx context.Context) ([]domain.Consultation, error) {
	return s.consultations.FindAll(ctx)
}

// ListByPatient returns all consultations for a patient.
func (s *Service) ListByPatient(ctx context.Context, patientID uint) ([]domain.Consultation, error) {
	return s.consultations.FindByPatientID(ctx, patientID)
}

// ListUpcomingByPatient returns the patient's future scheduled
// consultations, earliest first.
func (s *Service) ListUpcomingByPatient(ctx context.Context, patientID uint) ([]domain.Consultation, error) {
	return s.consultations.FindFutureConsultationsByPatientID(ctx, patientID)
}

// ListByPatientAndStatus returns the patient's consultations in a status.
func (s *Service) ListByPatientAndStatus(ctx context.Context, patientID uint, status domain.ConsultationStatus) ([]domain.Consultation, error) {
	return s.consultations.FindByPatientIDAndStatus(ctx, patientID, status)
}

// asNotFound rewrites a repository not-found error with a use-case level
// message; any other error passes through.
func asNotFound(err error, message string) error {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return domain.NewNotFoundError("%s", message)
	}
	return err
}
