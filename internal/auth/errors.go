// ABOUTME: The three client-visible authentication errors and their JSON rendering
// ABOUTME: Maps errors to 401/403/500 with an {"error","description"} body

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Client-visible auth errors. Everything the middleware rejects is reported
// as one of these; the precise reason only goes to the log.
var (
	ErrNoAuthorizationHeader = errors.New("missing authorization header")
	ErrInvalidCredentials    = errors.New("invalid authentication credentials")
	ErrMissingPermissions    = errors.New("missing permissions")
)

// ErrorResponse is the JSON body of an error answer.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// StatusCode returns the HTTP status for an auth error; anything else is a 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNoAuthorizationHeader), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMissingPermissions):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code for an auth error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoAuthorizationHeader):
		return "missing_authorization_header"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrMissingPermissions):
		return "missing_permissions"
	default:
		return "internal_error"
	}
}

// WriteError answers with the status, code and description for err. Internal
// errors get a generic description.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	description := err.Error()
	if status == http.StatusInternalServerError {
		description = "internal server error"
	}
	WriteJSONError(w, status, ErrorCode(err), description)
}

// WriteJSONError writes an ErrorResponse.
func WriteJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Description: description})
}
