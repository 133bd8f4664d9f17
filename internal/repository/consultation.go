package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/hospital/services/scheduling/internal/domain"
)

// GormConsultationRepository implements ConsultationRepository on gorm.
type GormConsultationRepository struct {
	db *gorm.DB
}

// NewGormConsultationRepository creates a consultation repository.
func NewGormConsultationRepository(db *gorm.DB) *GormConsultationRepository {
	return &GormConsultationRepository{db: db}
}

// Save inserts or updates the consultation and returns the stored value
// with the storage-assigned ID filled in.
func (r *GormConsultationRepository) Save(ctx context.Context, consultation *domain.Consultation) (*domain.Consultation, error) {
	model := newConsultationModel(consultation)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return nil, errors.Wrap(err, "failed to save consultation")
	}
	return model.toDomain(), nil
}

// FindByID returns the consultation or a domain NotFoundError.
func (r *GormConsultationRepository) FindByID(ctx context.Context, id uint) (*domain.Consultation, error) {
	var model ConsultationModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Consultation not found")
		}
		return nil, errors.Wrap(err, "failed to load consultation")
	}
	return model.toDomain(), nil
}

// FindAll returns every consultation.
func (r *GormConsultationRepository) FindAll(ctx context.Context) ([]domain.Consultation, error) {
	var models []ConsultationModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list consultations")
	}
	return toDomainSlice(models), nil
}

// FindByPatientID returns all consultations for a patient.
func (r *GormConsultationRepository) FindByPatientID(ctx context.Context, patientID uint) ([]domain.Consultation, error) {
	var models []ConsultationModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consultations by patient")
	}
	return toDomainSlice(models), nil
}

// FindFutureConsultationsByPatientID returns the patient's upcoming
// SCHEDULED consultations, earliest first.
func (r *GormConsultationRepository) FindFutureConsultationsByPatientID(ctx context.Context, patientID uint) ([]domain.Consultation, error) {
	var models []ConsultationModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND scheduled_at > ? AND status = ?",
			patientID, time.Now(), string(domain.StatusScheduled)).
		Order("scheduled_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list future consultations")
	}
	return toDomainSlice(models), nil
}

// FindByPatientIDAndStatus returns the patient's consultations in the
// given status.
func (r *GormConsultationRepository) FindByPatientIDAndStatus(ctx context.Context, patientID uint, status domain.ConsultationStatus) ([]domain.Consultation, error) {
	var models []ConsultationModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, string(status)).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consultations by status")
	}
	return toDomainSlice(models), nil
}

// ExistsByDoctorIDAndScheduledAt reports whether any consultation row for
// the doctor matches the exact timestamp. Cancelled rows count too: the
// conflict set is not filtered by status.
func (r *GormConsultationRepository) ExistsByDoctorIDAndScheduledAt(ctx context.Context, doctorID uint, scheduledAt time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ConsultationModel{}).
		Where("doctor_id = ? AND scheduled_at = ?", doctorID, scheduledAt).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check doctor availability")
	}
	return count > 0, nil
}

func toDomainSlice(models []ConsultationModel) []domain.Consultation {
	consultations := make([]domain.Consultation, 0, len(models))
	for i := range models {
		consultations = append(consultations, *models[i].toDomain())
	}
	return consultations
}
