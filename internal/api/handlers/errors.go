package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sarelsmotors/garage/internal/api/dto"
	"github.com/sarelsmotors/garage/internal/auth"
)

// Client-facing messages. Internal error text never reaches the response.
const (
	MsgInvalidCredentials = "Invalid Credentials"
	MsgLoginSuccessful    = "Login successful"
	MsgLoggedOut          = "Logged out"
	MsgMissingFields      = "Email and password are required"
	MsgInvalidBody        = "Invalid request body"
	MsgInternal           = "An error occurred"
	MsgNotConfigured      = "Internal server error"
	MsgNotFound           = "Not found"
)

type httpError struct {
	status  int
	message string
}

// mapError turns a service error into a status and a safe message.
func mapError(err error) httpError {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return httpError{http.StatusUnauthorized, MsgInvalidCredentials}
	case errors.Is(err, auth.ErrMissingSigningKey):
		return httpError{http.StatusInternalServerError, MsgNotConfigured}
	case errors.Is(err, auth.ErrInvalidToken):
		return httpError{http.StatusUnauthorized, "Unauthorized"}
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, errOrganizationNotFound):
		return httpError{http.StatusNotFound, MsgNotFound}
	default:
		return httpError{http.StatusInternalServerError, MsgInternal}
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	he := mapError(err)
	if he.status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeError(w, he.status, he.message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
