// Package httputil centralizes JSON response and error envelope handling so
// every handler translates domain errors the same way.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "terrier/pkg/domain-errors"
)

// statusFor maps domain error codes to HTTP status codes.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the standard JSON error envelope. Internal errors omit
// the description so infrastructure details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal && code != dErrors.CodeInvariantViolation {
		body["error_description"] = de.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
