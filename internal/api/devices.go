package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/telemetry-core/internal/device"
)

// updateDeviceRequest is the PATCH body. Pointers distinguish an absent
// field from one sent as null.
type updateDeviceRequest struct {
	Name         *string `json:"name"`
	Type         *string `json:"type"`
	Status       *string `json:"status"`
	LastActiveAt *string `json:"last_active_at"`
}

type heartbeatRequest struct {
	Status string `json:"status"`
}

// handleRegisterDevice creates a device owned by the caller.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req device.RegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	d, err := s.registry.Register(r.Context(), ownerID(r), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"device":  d,
	})
}

// handleListDevices returns the caller's devices.
//
// Query parameters:
//   - type: exact match on device type
//   - status: exact match on device status
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	devices, err := s.registry.List(r.Context(), ownerID(r), device.Filter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(devices),
		"devices": devices,
	})
}

// handleUpdateDevice applies a partial update. Empty strings are treated as
// absent, so a field cannot be blanked through this endpoint.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req updateDeviceRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	var patch device.Patch
	if req.Name != nil {
		patch.Name = device.Some(*req.Name)
	}
	if req.Type != nil {
		patch.Type = device.Some(*req.Type)
	}
	if req.Status != nil {
		patch.Status = device.Some(*req.Status)
	}
	if req.LastActiveAt != nil && *req.LastActiveAt != "" {
		t, err := parseTimestamp(*req.LastActiveAt)
		if err != nil {
			writeValidationError(w, msgInvalidTimestamp)
			return
		}
		patch.LastActiveAt = device.Some(t)
	}

	d, err := s.registry.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"device":  d,
	})
}

// handleDeleteDevice removes the caller's device and its logs.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Device deleted successfully",
		"device":  d,
	})
}

// handleHeartbeat stamps last_active_at and optionally sets status.
// The body may be omitted.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	d, err := s.registry.RecordHeartbeat(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Device heartbeat recorded",
		"last_active_at": device.FormatISO(*d.LastActiveAt),
	})
}

// decodeJSON decodes the request body into v. When optional is true an
// empty body leaves v untouched.
func decodeJSON(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseTimestamp accepts RFC 3339 timestamps and bare dates.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}
