package domain

import "fmt"

// ValidationError indicates malformed input: a missing required id or a
// past-dated schedule. Nothing is persisted and no event is emitted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced patient, doctor or consultation
// does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError indicates the doctor is already booked at the exact
// requested instant.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a conflict error
func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StateError indicates an illegal transition, such as rescheduling a
// cancelled consultation.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// NewStateError creates a state error
func NewStateError(format string, args ...interface{}) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}
