// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses, standardized error responses and the
// mapping from application error kinds to status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
//
// Example:
//
//	response.RespondError(w, r, http.StatusBadRequest, "validation failed", err.Error())
//	response.RespondError(w, r, http.StatusNotFound, "resource not found", nil)
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	RespondJSON(w, r, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// StatusFor maps an application error to its HTTP status code.
//
//   - Validation, InsufficientQuantity, InvalidRatio: 400
//   - NotFound: 404
//   - Conflict: 409
//   - anything else, including Persistence: 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInsufficientQuantity),
		errors.Is(err, apperrors.ErrInvalidRatio):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError writes err with the status from StatusFor. Field errors and
// integrity issues are returned as details. Server errors are logged and
// answered with fallback as the message, hiding storage details from clients.
func RespondAppError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg(fallback)
		RespondError(w, r, status, fallback, nil)
		return
	}

	var details any
	var fieldErr *validation.Error
	var integrityErr *ledger.IntegrityError
	switch {
	case errors.As(err, &fieldErr):
		RespondError(w, r, status, "validation failed", fieldErr.Fields)
		return
	case errors.As(err, &integrityErr):
		details = integrityErr.Issue
	}

	RespondError(w, r, status, err.Error(), details)
}
