package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/telemetry-core/internal/telemetry"
)

type appendLogRequest struct {
	Event telemetry.Event `json:"event"`
	Value *float64        `json:"value"`
}

// handleAppendLog records an event against the caller's device.
func (s *Server) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var req appendLogRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	log, err := s.store.Append(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Event, req.Value)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Log entry created",
		"log":     log,
	})
}

// handleFetchLogs returns the device's newest logs.
//
// Query parameters:
//   - limit: maximum entries (default 10, capped by configuration)
func (s *Server) handleFetchLogs(w http.ResponseWriter, r *http.Request) {
	limit := telemetry.ParseLimit(r.URL.Query().Get("limit"))

	logs, err := s.store.FetchRecent(r.Context(), ownerID(r), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// handleUsage sums units_consumed over a trailing window.
//
// Query parameters:
//   - range: "<N>h" or "<N>d", default "24h". Any other form gives an
//     empty window; the value is echoed back unchanged.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng := telemetry.DefaultRange
	if q.Has("range") {
		rng = q.Get("range")
	}

	usage, err := s.aggregator.AggregateUsage(r.Context(), ownerID(r), chi.URLParam(r, "id"), rng)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"device_id":        usage.DeviceID,
		"total_units_last": usage.TotalUnitsLast,
		"total_units":      usage.TotalUnits,
	})
}
