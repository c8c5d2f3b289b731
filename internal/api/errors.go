package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/telemetry-core/internal/device"
	"github.com/nerrad567/telemetry-core/internal/telemetry"
)

// Error represents a structured error response.
// Detail is only populated outside production.
type Error struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// Client-facing messages that callers match on.
const (
	msgDeviceNotFound   = "Device not found or not authorized"
	msgNoToken          = "Not authorized, no token"
	msgTokenFailed      = "Not authorized, token failed"
	msgMissingFields    = "Please enter all the fields"
	msgUserExists       = "User already exists"
	msgInvalidLogin     = "Invalid email or password"
	msgInternal         = "internal server error"
	msgInvalidJSON      = "invalid JSON body"
	msgInvalidTimestamp = "last_active_at must be an ISO-8601 timestamp"
)

// internalErrorBody is sent when a response payload cannot be encoded.
var internalErrorBody = []byte(`{"success":false,"code":"` + ErrCodeInternal + `","message":"` + msgInternal + `"}` + "\n")

// writeJSON writes a JSON response with the given status code and payload.
// The payload is encoded before the header is sent, so a value that cannot
// be encoded becomes a 500 instead of an empty response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		//nolint:errcheck // Best-effort write to response; connection may be closed
		w.Write(internalErrorBody)
		return
	}

	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(append(body, '\n'))
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeValidationError writes a 400 for a rejected field.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeValidation, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError logs err and writes a 500. The error chain is echoed
// as detail only outside production.
func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	body := Error{Code: ErrCodeInternal, Message: msgInternal}
	if !s.production && err != nil {
		body.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// writeDomainError maps core errors onto HTTP responses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, device.ErrNotFoundOrUnauthorized):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, msgDeviceNotFound)
	case errors.Is(err, device.ErrValidation):
		writeValidationError(w, validationMessage(err, device.ErrValidation))
	case errors.Is(err, telemetry.ErrValidation):
		writeValidationError(w, validationMessage(err, telemetry.ErrValidation))
	default:
		s.writeInternalError(w, r, err)
	}
}

// validationMessage strips the sentinel prefix so clients see only the
// field-level reason.
func validationMessage(err, sentinel error) string {
	msg := err.Error()
	if reason, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return reason
	}
	return msg
}
