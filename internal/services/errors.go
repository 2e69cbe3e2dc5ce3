package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exercise-service/internal/errors"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Exercise specific errors
	ErrExerciseNotFound       = errors.New("exercise not found")
	ErrExerciseNotInEpisode   = errors.New("exercise does not belong to this episode")
	ErrEpisodeNotFound        = errors.New("episode not found")
	ErrEpisodeAccessDenied    = errors.New("access denied to episode")
	ErrResponseTypeMismatch   = errors.New("response type does not match exercise type")
	ErrInvalidResponse        = errors.New("invalid exercise response")
	ErrFreeResponseGrading    = errors.New("free response grading failed")
	ErrExerciseContentCorrupt = errors.New("stored exercise content is invalid")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// Unwrap lets callers match the sentinel a rule was raised for
func (bre *BusinessRuleError) Unwrap() error {
	if bre.Rule == "response_type" {
		return ErrResponseTypeMismatch
	}
	return nil
}

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrEpisodeAccessDenied
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return apperrors.NewValidationErrorWithRule(field, message, rule, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID uint, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrExerciseNotInEpisode) ||
		errors.Is(err, ErrEpisodeNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrEpisodeAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidResponse) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsTypeMismatch checks if a response was submitted for the wrong exercise type
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrResponseTypeMismatch)
}

// IsExternalFailure checks if a collaborator call failed
func IsExternalFailure(err error) bool {
	return errors.Is(err, ErrFreeResponseGrading) || errors.Is(err, grader.ErrMalformedVerdict)
}
