package notification

import (
	"fmt"
	"time"

	"example.com/hospital/services/scheduling/internal/domain"
)

// Notification subjects.
const (
	SubjectScheduled   = "Consultation Scheduled - Hospital"
	SubjectRescheduled = "Consultation Rescheduled - Hospital"
	SubjectCancelled   = "Consultation Cancelled - Hospital"
)

// Contact details included in cancellation messages.
const (
	contactPhone = "(11) 1234-5678"
	contactEmail = "scheduling@hospital.com"
)

const dateTimeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

func renderScheduled(event *domain.ConsultationCreated) string {
	return fmt.Sprintf(
		"Hello %s!\n\n"+
			"Your consultation has been successfully scheduled:\n"+
			"Date: %s\n"+
			"Doctor: %s\n\n"+
			"Please arrive 15 minutes early.\n"+
			"If you have any questions, please contact us.\n\n"+
			"Best regards,\n"+
			"Hospital Team",
		event.PatientName,
		formatTime(event.ScheduledAt),
		event.DoctorName,
	)
}

func renderRescheduled(event *domain.ConsultationRescheduled) string {
	return fmt.Sprintf(
		"Hello %s!\n\n"+
			"Your consultation has been rescheduled:\n"+
			"Previous date: %s\n"+
			"New date: %s\n"+
			"Doctor: %s\n\n"+
			"Please arrive 15 minutes early.\n"+
			"If you have any questions, please contact us.\n\n"+
			"Best regards,\n"+
			"Hospital Team",
		event.PatientName,
		formatTime(event.OldDateTime),
		formatTime(event.NewDateTime),
		event.DoctorName,
	)
}

func renderCancelled(event *domain.ConsultationCancelled) string {
	return fmt.Sprintf(
		"Hello %s!\n\n"+
			"Unfortunately, your consultation has been cancelled.\n"+
			"Reason: %s\n\n"+
			"To reschedule, please contact us:\n"+
			"%s\n"+
			"%s\n\n"+
			"Best regards,\n"+
			"Hospital Team",
		event.PatientName,
		event.Reason,
		contactPhone,
		contactEmail,
	)
}
