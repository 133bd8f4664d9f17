package domain

import (
	"strings"
	"time"
)

// Role classifies a user within the hospital.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RoleNurse   Role = "NURSE"
	RolePatient Role = "PATIENT"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

// User is a hospital user: a patient, a doctor or a nurse. Events
// denormalize the name and email so the notification pipeline never has
// to look a user up again.
type User struct {
	ID        uint
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser validates and creates a user.
func NewUser(name, email string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, NewValidationError("name must have at least 2 characters")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return nil, NewValidationError("email must be a valid address")
	}

	if !role.Valid() {
		return nil, NewValidationError("unknown role: %s", role)
	}

	now := time.Now()
	return &User{
		Name:      name,
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Deactivate marks the user inactive.
func (u *User) Deactivate() {
	u.Active = false
	u.UpdatedAt = time.Now()
}

// CanViewAllConsultations reports whether the user may list consultations
// belonging to other patients.
func (u *User) CanViewAllConsultations() bool {
	return u.Role == RoleDoctor || u.Role == RoleNurse
}
