package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")

	// Lookup errors
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrScopeNotFound   = errors.New("topic scope not found")
	ErrLearnerNotFound = errors.New("learner not found")

	// Session flow errors
	ErrNoMoreItems      = errors.New("no more items in scope")
	ErrLearnerInactive  = errors.New("learner cannot be assessed")
	ErrItemNotPresented = errors.New("item is not the one awaiting a response")
	ErrNoItemPresented  = errors.New("no item is awaiting a response")
	ErrSessionTerminal  = errors.New("session already finished")
	ErrAnswerKeyCorrupt = errors.New("item answer key is unusable")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared error types from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors
type NotFoundError = apperrors.NotFoundError
type MalformedResponseError = apperrors.MalformedResponseError
type InvalidStateError = apperrors.InvalidStateError

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// wrapNotFound tags a repository miss with the service sentinel so callers can
// match either the sentinel or the typed error.
func wrapNotFound(err error, sentinel error) error {
	if apperrors.IsNotFound(err) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrScopeNotFound) ||
		errors.Is(err, ErrLearnerNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsMalformedResponse checks if a submitted response did not fit its item
func IsMalformedResponse(err error) bool {
	return apperrors.IsMalformedResponse(err)
}

// IsInvalidState checks if an operation was refused by the session state machine
func IsInvalidState(err error) bool {
	return apperrors.IsInvalidState(err)
}

// IsForbidden checks if the learner may not be assessed
func IsForbidden(err error) bool {
	return errors.Is(err, ErrLearnerInactive)
}
