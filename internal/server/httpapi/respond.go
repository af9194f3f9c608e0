package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/cyberguard/internal/common"
)

const maxBodyBytes = 1 << 20

const (
	msgUserExists      = "User already exists"
	msgWeakPassword    = "Password must be at least 8 characters long"
	msgInvalidCreds    = "Invalid credentials"
	msgTooManyAttempts = "Too many login attempts, please try again later"
	msgAuthRequired    = "Authentication required"
	msgInvalidToken    = "Invalid or expired token"
	msgUserNotFound    = "User not found"
	msgServerError     = "Server error"
	msgInvalidBody     = "Invalid request body"
	msgRegistered      = "User registered successfully"
	msgLoginSuccessful = "Login successful"
	msgLoggedOut       = "Logged out successfully"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeJSON reads at most maxBodyBytes of JSON into v. An empty body leaves
// v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps service errors to status codes and client messages.
// Unrecognised errors are logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, common.ErrDuplicateEmail):
		writeMessage(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, common.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, msgWeakPassword)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, msgInvalidCreds)
	case errors.Is(err, common.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, msgTooManyAttempts)
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, msgAuthRequired)
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked):
		writeMessage(w, http.StatusForbidden, msgInvalidToken)
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, msgUserNotFound)
	default:
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, msgServerError)
	}
}
