package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/hospital/services/scheduling/internal/domain"
)

// CreateConsultationRequest is the payload for booking a consultation.
type CreateConsultationRequest struct {
	PatientID   uint      `json:"patientId" binding:"required"`
	DoctorID    uint      `json:"doctorId" binding:"required"`
	ScheduledAt time.Time `json:"scheduledDateTime" binding:"required"`
}

// UpdateConsultationRequest is the payload for rescheduling.
type UpdateConsultationRequest struct {
	ScheduledAt time.Time `json:"scheduledDateTime" binding:"required"`
}

// CancelConsultationRequest optionally carries the cancellation reason.
// Omitting the body or the reason falls back to the default phrase; an
// explicit empty string is preserved.
type CancelConsultationRequest struct {
	Reason *string `json:"reason"`
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// ConsultationResponse is the wire shape of a consultation.
type ConsultationResponse struct {
	ID           uint       `json:"id"`
	PatientID    uint       `json:"patientId"`
	DoctorID     uint       `json:"doctorId"`
	ScheduledAt  time.Time  `json:"scheduledDateTime"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	Symptoms     string     `json:"symptoms,omitempty"`
	Diagnosis    string     `json:"diagnosis,omitempty"`
	Prescription string     `json:"prescription,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	StartedAt    *time.Time `json:"actualStartTime,omitempty"`
	EndedAt      *time.Time `json:"actualEndTime,omitempty"`
}

func toConsultationResponse(c *domain.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:           c.ID,
		PatientID:    c.PatientID,
		DoctorID:     c.DoctorID,
		ScheduledAt:  c.ScheduledAt,
		Status:       string(c.Status),
		Notes:        c.Notes,
		Symptoms:     c.Symptoms,
		Diagnosis:    c.Diagnosis,
		Prescription: c.Prescription,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		StartedAt:    c.ActualStartTime,
		EndedAt:      c.ActualEndTime,
	}
}

func toConsultationResponses(consultations []domain.Consultation) []ConsultationResponse {
	responses := make([]ConsultationResponse, 0, len(consultations))
	for i := range consultations {
		responses = append(responses, toConsultationResponse(&consultations[i]))
	}
	return responses
}

// UserResponse is the wire shape of a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) createConsultation(c *gin.Context) {
	var req CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	consultation, err := s.consultations.Schedule(c.Request.Context(), req.PatientID, req.DoctorID, req.ScheduledAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConsultationResponse(consultation))
}

func (s *Server) listConsultations(c *gin.Context) {
	consultations, err := s.consultations.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultationResponses(consultations))
}

func (s *Server) getConsultation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	consultation, err := s.consultations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultationResponse(consultation))
}

func (s *Server) updateConsultation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	consultation, err := s.consultations.Reschedule(c.Request.Context(), id, req.ScheduledAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultationResponse(consultation))
}

func (s *Server) cancelConsultation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// The body is optional on cancellation.
	var req CancelConsultationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := s.consultations.Cancel(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) listConsultationsByPatient(c *gin.Context) {
	patientID, ok := pathID(c, "patientId")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if status := c.Query("status"); status != "" {
		consultations, err := s.consultations.ListByPatientAndStatus(ctx, patientID, domain.ConsultationStatus(status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toConsultationResponses(consultations))
		return
	}

	consultations, err := s.consultations.ListByPatient(ctx, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultationResponses(consultations))
}

func (s *Server) listUpcomingConsultations(c *gin.Context) {
	patientID, ok := pathID(c, "patientId")
	if !ok {
		return
	}

	consultations, err := s.consultations.ListUpcomingByPatient(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultationResponses(consultations))
}

func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Name, req.Email, domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id: " + raw})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		state      *domain.StateError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Message})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Message})
	case errors.As(err, &state):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": state.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
