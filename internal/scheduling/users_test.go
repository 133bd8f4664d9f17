package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/hospital/services/scheduling/internal/domain"
)

func TestRegisterUser(t *testing.T) {
	users := new(MockUserDirectory)
	service := NewUserService(users)

	saved := &domain.User{ID: 1, Name: "Ana Souza", Email: "ana@example.com", Role: domain.RolePatient, Active: true}
	users.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(false, nil)
	users.On("Save", mock.Anything, mock.AnythingOfType("*domain.User")).Return(saved, nil)

	result, err := service.Register(context.Background(), "Ana Souza", "Ana@Example.com", domain.RolePatient)

	require.NoError(t, err)
	assert.Equal(t, uint(1), result.ID)
	assert.Equal(t, "ana@example.com", result.Email)
	users.AssertExpectations(t)
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	users := new(MockUserDirectory)
	service := NewUserService(users)

	users.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(true, nil)

	_, err := service.Register(context.Background(), "Ana Souza", "ana@example.com", domain.RolePatient)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Email already registered", validation.Message)
	users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRegisterUserInvalidInput(t *testing.T) {
	users := new(MockUserDirectory)
	service := NewUserService(users)

	_, err := service.Register(context.Background(), "A", "ana@example.com", domain.RolePatient)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}
