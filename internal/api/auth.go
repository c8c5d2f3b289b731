package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/telemetry-core/internal/auth"
)

// handleSignup creates an account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	if _, err := s.accounts.Signup(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeValidationError(w, msgMissingFields)
		case errors.Is(err, auth.ErrUserExists):
			writeBadRequest(w, msgUserExists)
		case errors.Is(err, auth.ErrInvalidRole):
			writeValidationError(w, "role must be user or admin")
		default:
			s.writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
	})
}

// handleLogin exchanges email and password for an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	session, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, msgInvalidLogin)
			return
		}
		s.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   session.Token,
		"user":    session.User,
	})
}
