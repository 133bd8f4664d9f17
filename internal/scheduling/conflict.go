package scheduling

import (
	"context"
	"time"

	"example.com/hospital/services/scheduling/internal/repository"
)

// ConflictPolicy decides whether a doctor is already booked for a slot.
// The check is an exact timestamp match against every consultation row for
// the doctor, cancelled ones included; there is no interval overlap logic.
// It runs before the write and is not atomic with it, so two concurrent
// requests can both pass and double-book the slot.
type ConflictPolicy struct {
	consultations repository.ConsultationRepository
}

// NewConflictPolicy creates the policy on top of the consultation store.
func NewConflictPolicy(consultations repository.ConsultationRepository) *ConflictPolicy {
	return &ConflictPolicy{consultations: consultations}
}

// HasConflict reports whether the doctor already has a consultation at
// exactly the given instant.
func (p *ConflictPolicy) HasConflict(ctx context.Context, doctorID uint, scheduledAt time.Time) (bool, error) {
	return p.consultations.ExistsByDoctorIDAndScheduledAt(ctx, doctorID, scheduledAt)
}
