package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "listing not found with id abc123"}
//
// so the frontend can read the message regardless of the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/madison-marketplace/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Input field at fault, for validation errors
}

// SuccessResponse is returned by endpoints with nothing else to say.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything after is ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an application error to its HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusInternalServerError, "upstream_error"
	case errors.Is(err, apperror.ErrNotConfigured):
		return http.StatusInternalServerError, "not_configured"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends it. Server errors are logged with their full cause; the client only
// sees the AppError message, or a generic one for untyped errors, which may
// carry SQL or file paths.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, errorType := statusFor(err)

	var appErr *apperror.AppError
	typed := errors.As(err, &appErr)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("type", errorType),
			slog.String("error", err.Error()),
			slog.Any("cause", apperror.CauseOf(err)),
		)
	} else {
		logger.Debug("request rejected", slog.String("type", errorType), slog.String("error", err.Error()))
	}

	if !typed {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads the request body into dst. Malformed or oversized bodies
// become validation errors.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}
