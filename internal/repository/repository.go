// Package repository implements the storage ports behind gorm. The domain
// package never sees gorm types; rows are mapped to and from domain values
// at this boundary.
package repository

import (
	"context"
	"time"

	"example.com/hospital/services/scheduling/internal/domain"
)

// ConsultationRepository is the persistence port for consultations.
type ConsultationRepository interface {
	// Save persists the consultation, assigning the ID on first save,
	// and returns the stored value.
	Save(ctx context.Context, consultation *domain.Consultation) (*domain.Consultation, error)
	FindByID(ctx context.Context, id uint) (*domain.Consultation, error)
	FindAll(ctx context.Context) ([]domain.Consultation, error)
	FindByPatientID(ctx context.Context, patientID uint) ([]domain.Consultation, error)
	FindFutureConsultationsByPatientID(ctx context.Context, patientID uint) ([]domain.Consultation, error)
	FindByPatientIDAndStatus(ctx context.Context, patientID uint, status domain.ConsultationStatus) ([]domain.Consultation, error)
	ExistsByDoctorIDAndScheduledAt(ctx context.Context, doctorID uint, scheduledAt time.Time) (bool, error)
}

// UserDirectory resolves user ids to profile data (name, email, role) and
// backs user registration.
type UserDirectory interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindActive(ctx context.Context) ([]domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
