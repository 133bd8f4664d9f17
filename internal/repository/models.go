package repository

import (
	"time"

	"gorm.io/gorm"

	"example.com/hospital/services/scheduling/internal/domain"
)

// ConsultationModel is the gorm row for a consultation.
type ConsultationModel struct {
	ID              uint       `gorm:"primaryKey"`
	PatientID       uint       `gorm:"not null;index"`
	DoctorID        uint       `gorm:"not null;index:idx_doctor_slot"`
	ScheduledAt     time.Time  `gorm:"not null;index:idx_doctor_slot"`
	ActualStartTime *time.Time
	ActualEndTime   *time.Time
	Status          string `gorm:"not null;size:16"`
	Notes           string
	Symptoms        string
	Diagnosis       string
	Prescription    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName maps the model to its table.
func (ConsultationModel) TableName() string {
	return "consultations"
}

func newConsultationModel(c *domain.Consultation) *ConsultationModel {
	return &ConsultationModel{
		ID:              c.ID,
		PatientID:       c.PatientID,
		DoctorID:        c.DoctorID,
		ScheduledAt:     c.ScheduledAt,
		ActualStartTime: c.ActualStartTime,
		ActualEndTime:   c.ActualEndTime,
		Status:          string(c.Status),
		Notes:           c.Notes,
		Symptoms:        c.Symptoms,
		Diagnosis:       c.Diagnosis,
		Prescription:    c.Prescription,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (m *ConsultationModel) toDomain() *domain.Consultation {
	return &domain.Consultation{
		ID:              m.ID,
		PatientID:       m.PatientID,
		DoctorID:        m.DoctorID,
		ScheduledAt:     m.ScheduledAt,
		ActualStartTime: m.ActualStartTime,
		ActualEndTime:   m.ActualEndTime,
		Status:          domain.ConsultationStatus(m.Status),
		Notes:           m.Notes,
		Symptoms:        m.Symptoms,
		Diagnosis:       m.Diagnosis,
		Prescription:    m.Prescription,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// UserModel is the gorm row for a user.
type UserModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;uniqueIndex"`
	Role      string `gorm:"not null;size:16"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName maps the model to its table.
func (UserModel) TableName() string {
	return "users"
}

func newUserModel(u *domain.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      domain.Role(m.Role),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Migrate creates or updates the tables backing the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ConsultationModel{}, &UserModel{})
}
