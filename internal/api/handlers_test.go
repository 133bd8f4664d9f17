package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/hospital/services/scheduling/internal/domain"
	"example.com/hospital/services/scheduling/internal/messaging"
	"example.com/hospital/services/scheduling/internal/repository"
	"example.com/hospital/services/scheduling/internal/scheduling"
)

type testEnv struct {
	server    *Server
	patientID uint
	doctorID  uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	consultations := repository.NewGormConsultationRepository(db)
	users := repository.NewGormUserDirectory(db)
	publisher := messaging.NewEventPublisher(messaging.NewMemoryBroker())

	consultationService := scheduling.NewService(consultations, users, publisher)
	userService := scheduling.NewUserService(users)

	ctx := context.Background()
	patient, err := userService.Register(ctx, "Ana Souza", "ana@example.com", domain.RolePatient)
	require.NoError(t, err)
	doctor, err := userService.Register(ctx, "Dr. Silva", "silva@example.com", domain.RoleDoctor)
	require.NoError(t, err)

	return &testEnv{
		server:    NewServer(":0", consultationService, userService),
		patientID: patient.ID,
		doctorID:  doctor.ID,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	e.server.Router().ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) createConsultation(t *testing.T, scheduledAt time.Time) ConsultationResponse {
	t.Helper()

	recorder := e.do(t, http.MethodPost, "/api/consultations", gin.H{
		"patientId":         e.patientID,
		"doctorId":          e.doctorID,
		"scheduledDateTime": scheduledAt.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var response ConsultationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func futureSlot(hours int) time.Time {
	return time.Now().Add(time.Duration(hours) * time.Hour).Truncate(time.Second).UTC()
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/ping", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestCreateConsultation(t *testing.T) {
	env := newTestEnv(t)

	response := env.createConsultation(t, futureSlot(24))

	assert.NotZero(t, response.ID)
	assert.Equal(t, env.patientID, response.PatientID)
	assert.Equal(t, env.doctorID, response.DoctorID)
	assert.Equal(t, string(domain.StatusScheduled), response.Status)
}

func TestCreateConsultationUnknownPatient(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/consultations", gin.H{
		"patientId":         uint(9999),
		"doctorId":          env.doctorID,
		"scheduledDateTime": futureSlot(24).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Patient not found")
}

func TestCreateConsultationWithDoctorAsPatient(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/consultations", gin.H{
		"patientId":         env.doctorID,
		"doctorId":          env.doctorID,
		"scheduledDateTime": futureSlot(24).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Specified user is not a patient")
}

func TestCreateConsultationConflict(t *testing.T) {
	env := newTestEnv(t)

	slot := futureSlot(24)
	env.createConsultation(t, slot)

	recorder := env.do(t, http.MethodPost, "/api/consultations", gin.H{
		"patientId":         env.patientID,
		"doctorId":          env.doctorID,
		"scheduledDateTime": slot.Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Doctor already has a consultation scheduled at this time")
}

func TestCreateConsultationMissingFields(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/consultations", gin.H{
		"patientId": env.patientID,
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetConsultation(t *testing.T) {
	env := newTestEnv(t)

	created := env.createConsultation(t, futureSlot(24))

	recorder := env.do(t, http.MethodGet, fmt.Sprintf("/api/consultations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response ConsultationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, created.ID, response.ID)
}

func TestGetConsultationNotFound(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/consultations/9999", nil)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetConsultationInvalidID(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/consultations/abc", nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRescheduleConsultation(t *testing.T) {
	env := newTestEnv(t)

	created := env.createConsultation(t, futureSlot(24))
	newSlot := futureSlot(48)

	recorder := env.do(t, http.MethodPut, fmt.Sprintf("/api/consultations/%d", created.ID), gin.H{
		"scheduledDateTime": newSlot.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var response ConsultationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.True(t, response.ScheduledAt.Equal(newSlot))
}

func TestCancelConsultationWithoutBody(t *testing.T) {
	env := newTestEnv(t)

	created := env.createConsultation(t, futureSlot(24))

	recorder := env.do(t, http.MethodDelete, fmt.Sprintf("/api/consultations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	getRecorder := env.do(t, http.MethodGet, fmt.Sprintf("/api/consultations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, getRecorder.Code)

	var response ConsultationResponse
	require.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), &response))
	assert.Equal(t, string(domain.StatusCancelled), response.Status)
	assert.Equal(t, scheduling.DefaultCancelReason, response.Notes)
}

func TestCancelConsultationWithReason(t *testing.T) {
	env := newTestEnv(t)

	created := env.createConsultation(t, futureSlot(24))

	recorder := env.do(t, http.MethodDelete, fmt.Sprintf("/api/consultations/%d", created.ID), gin.H{
		"reason": "patient request",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	getRecorder := env.do(t, http.MethodGet, fmt.Sprintf("/api/consultations/%d", created.ID), nil)
	var response ConsultationResponse
	require.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), &response))
	assert.Equal(t, "patient request", response.Notes)
}

func TestRescheduleCancelledConsultation(t *testing.T) {
	env := newTestEnv(t)

	created := env.createConsultation(t, futureSlot(24))
	env.do(t, http.MethodDelete, fmt.Sprintf("/api/consultations/%d", created.ID), nil)

	recorder := env.do(t, http.MethodPut, fmt.Sprintf("/api/consultations/%d", created.ID), gin.H{
		"scheduledDateTime": futureSlot(48).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestListConsultationsByPatientWithStatusFilter(t *testing.T) {
	env := newTestEnv(t)

	first := env.createConsultation(t, futureSlot(24))
	env.createConsultation(t, futureSlot(48))
	env.do(t, http.MethodDelete, fmt.Sprintf("/api/consultations/%d", first.ID), nil)

	recorder := env.do(t, http.MethodGet, fmt.Sprintf("/api/consultations/patient/%d?status=CANCELLED", env.patientID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var responses []ConsultationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &responses))
	require.Len(t, responses, 1)
	assert.Equal(t, first.ID, responses[0].ID)
}

func TestListUpcomingConsultations(t *testing.T) {
	env := newTestEnv(t)

	later := env.createConsultation(t, futureSlot(72))
	sooner := env.createConsultation(t, futureSlot(24))

	recorder := env.do(t, http.MethodGet, fmt.Sprintf("/api/consultations/patient/%d/upcoming", env.patientID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var responses []ConsultationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &responses))
	require.Len(t, responses, 2)
	assert.Equal(t, sooner.ID, responses[0].ID)
	assert.Equal(t, later.ID, responses[1].ID)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/users", gin.H{
		"name":  "Rui Costa",
		"email": "rui@example.com",
		"role":  "PATIENT",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var response UserResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotZero(t, response.ID)
	assert.Equal(t, "rui@example.com", response.Email)
	assert.True(t, response.Active)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/users", gin.H{
		"name":  "Ana Clone",
		"email": "ana@example.com",
		"role":  "PATIENT",
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Email already registered")
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var responses []UserResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &responses))
	assert.Len(t, responses, 2)
}
