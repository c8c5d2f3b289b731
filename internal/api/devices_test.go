package api

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestRegisterDevice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/devices", tokenA, `{"name":"thermo","type":"sensor"}`)
	assertStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	dev := body["device"].(map[string]any)
	if dev["status"] != "inactive" {
		t.Errorf("status = %v, want inactive", dev["status"])
	}
	if dev["owner_id"] != ownerA {
		t.Errorf("owner_id = %v, want %s", dev["owner_id"], ownerA)
	}
	if dev["last_active_at"] != nil {
		t.Errorf("last_active_at = %v, want null", dev["last_active_at"])
	}
	if _, ok := dev["created_at"]; ok {
		t.Error("created_at should not be exposed")
	}
}

func TestRegisterDevice_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing name", `{"type":"sensor"}`, ErrCodeValidation},
		{"missing type", `{"name":"thermo"}`, ErrCodeValidation},
		{"malformed", `{"name":`, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/devices", tokenA, tt.body)
			assertStatus(t, w, http.StatusBadRequest)
			if got := decodeBody(t, w)["code"]; got != tt.code {
				t.Errorf("code = %v, want %s", got, tt.code)
			}
		})
	}

	w := env.do(t, http.MethodPost, "/api/devices", tokenA, `{"type":"sensor"}`)
	assertMessage(t, w, "name is required")
}

func TestListDevices_FiltersAndIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.registerDevice(t, tokenA, "thermo", "sensor")
	env.registerDevice(t, tokenA, "meter", "meter")
	env.registerDevice(t, tokenB, "other", "sensor")

	w := env.do(t, http.MethodGet, "/api/devices", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}

	w = env.do(t, http.MethodGet, "/api/devices?type=sensor", tokenA, "")
	body = decodeBody(t, w)
	devices := body["devices"].([]any)
	if len(devices) != 1 || devices[0].(map[string]any)["name"] != "thermo" {
		t.Errorf("filtered devices = %v", devices)
	}

	w = env.do(t, http.MethodGet, "/api/devices?status=active", tokenA, "")
	if got := decodeBody(t, w)["count"]; got != float64(0) {
		t.Errorf("count with status=active = %v, want 0", got)
	}
}

func TestListDevices_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/devices", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	if _, ok := decodeBody(t, w)["devices"].([]any); !ok {
		t.Errorf("devices should be an array, body %s", w.Body.String())
	}
}

func TestUpdateDevice(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPatch, "/api/devices/"+id, tokenA,
		`{"name":"","status":"active","last_active_at":"2026-03-01T10:00:00Z"}`)
	assertStatus(t, w, http.StatusOK)

	dev := decodeBody(t, w)["device"].(map[string]any)
	if dev["name"] != "thermo" {
		t.Errorf("empty name should be ignored, got %v", dev["name"])
	}
	if dev["status"] != "active" {
		t.Errorf("status = %v, want active", dev["status"])
	}
	got, err := time.Parse(time.RFC3339Nano, dev["last_active_at"].(string))
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("last_active_at = %v (%v)", dev["last_active_at"], err)
	}
}

func TestUpdateDevice_BadTimestamp(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPatch, "/api/devices/"+id, tokenA, `{"last_active_at":"yesterday"}`)
	assertStatus(t, w, http.StatusBadRequest)
	assertMessage(t, w, msgInvalidTimestamp)
}

func TestUpdateDevice_TimestampOutsideStoredRange(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	// Valid RFC 3339, but year 10000 once converted to UTC.
	w := env.do(t, http.MethodPatch, "/api/devices/"+id, tokenA, `{"last_active_at":"9999-12-31T23:00:00-05:00"}`)
	assertStatus(t, w, http.StatusBadRequest)
	if got := decodeBody(t, w)["code"]; got != ErrCodeValidation {
		t.Errorf("code = %v, want %s", got, ErrCodeValidation)
	}

	// The device stays readable and deletable.
	w = env.do(t, http.MethodGet, "/api/devices", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["count"]; got != float64(1) {
		t.Errorf("count = %v, want 1", got)
	}
	w = env.do(t, http.MethodPost, "/api/devices/"+id+"/heartbeat", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodDelete, "/api/devices/"+id, tokenA, "")
	assertStatus(t, w, http.StatusOK)
}

func TestUpdateDevice_OtherOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPatch, "/api/devices/"+id, tokenB, `{"name":"stolen"}`)
	assertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, msgDeviceNotFound)

	w = env.do(t, http.MethodPatch, "/api/devices/dev-missing", tokenB, `{"name":"x"}`)
	assertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, msgDeviceNotFound)
}

func TestDeleteDevice(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodDelete, "/api/devices/"+id, tokenB, "")
	assertStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodDelete, "/api/devices/"+id, tokenA, "")
	assertStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["message"] != "Device deleted successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if body["device"].(map[string]any)["id"] != id {
		t.Errorf("deleted device = %v", body["device"])
	}

	w = env.do(t, http.MethodDelete, "/api/devices/"+id, tokenA, "")
	assertStatus(t, w, http.StatusNotFound)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/heartbeat", tokenA, `{"status":"online"}`)
	assertStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	if body["message"] != "Device heartbeat recorded" {
		t.Errorf("message = %v", body["message"])
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z", body["last_active_at"].(string)); err != nil {
		t.Errorf("last_active_at %v is not ISO millisecond UTC: %v", body["last_active_at"], err)
	}

	w = env.do(t, http.MethodGet, "/api/devices?status=online", tokenA, "")
	if got := decodeBody(t, w)["count"]; got != float64(1) {
		t.Errorf("online count = %v, want 1", got)
	}
}

func TestHeartbeat_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/heartbeat", tokenA, "")
	assertStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/devices?status=inactive", tokenA, "")
	if got := decodeBody(t, w)["count"]; got != float64(1) {
		t.Errorf("status should be unchanged, inactive count = %v", got)
	}
}

func TestHeartbeat_StatusTooLong(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	body := `{"status":"` + strings.Repeat("s", 65) + `"}`
	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/heartbeat", tokenA, body)
	assertStatus(t, w, http.StatusBadRequest)
	if got := decodeBody(t, w)["code"]; got != ErrCodeValidation {
		t.Errorf("code = %v, want %s", got, ErrCodeValidation)
	}
}

func TestHeartbeat_OtherOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "thermo", "sensor")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/heartbeat", tokenB, "")
	assertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, msgDeviceNotFound)
}
