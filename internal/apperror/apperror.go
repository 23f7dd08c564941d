package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUpstream      = errors.New("upstream failure")
	ErrNotConfigured = errors.New("not configured")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, logged but never shown to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is used for failed logins. The message must not reveal
// whether the account exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps a failure of an external collaborator (vision model, CDN).
// kind names the step ("tagging", "upload") and is used as the Field so
// callers can tell the two apart; the message stays generic.
func Upstream(kind, message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
		Field:   kind,
		Cause:   cause,
	}
}

// NotConfigured reports that a feature is unavailable because its
// credentials were not supplied at startup.
func NotConfigured(feature string) *AppError {
	return &AppError{
		Err:     ErrNotConfigured,
		Message: fmt.Sprintf("%s is not configured", feature),
		Field:   feature,
	}
}

// CauseOf returns the underlying cause recorded on an AppError, or err
// itself when there is none. Used for server-side logging.
func CauseOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		return appErr.Cause
	}
	return err
}
