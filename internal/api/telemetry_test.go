package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAppendLog(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/logs", tokenA, `{"event":"units_consumed","value":5}`)
	assertStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	if body["message"] != "Log entry created" {
		t.Errorf("message = %v", body["message"])
	}
	log := body["log"].(map[string]any)
	if log["event"] != "units_consumed" || log["value"] != float64(5) {
		t.Errorf("log = %v", log)
	}
	if log["owner_id"] != ownerA || log["device_id"] != id {
		t.Errorf("log ownership = %v", log)
	}
}

func TestAppendLog_InvalidEvent(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/logs", tokenA, `{"event":"bogus","value":1}`)
	assertStatus(t, w, http.StatusBadRequest)
	if got := decodeBody(t, w)["code"]; got != ErrCodeValidation {
		t.Errorf("code = %v", got)
	}

	w = env.do(t, http.MethodGet, "/api/devices/"+id+"/logs", tokenA, "")
	if got := decodeBody(t, w)["count"]; got != float64(0) {
		t.Errorf("count after rejected append = %v, want 0", got)
	}
}

func TestAppendLog_ValueTooLarge(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/devices/"+id+"/logs", tokenA, `{"event":"units_consumed","value":1e308}`)
		assertStatus(t, w, http.StatusBadRequest)
	}

	w := env.do(t, http.MethodGet, "/api/devices/"+id+"/usage", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["total_units"]; got != float64(0) {
		t.Errorf("total_units = %v, want 0", got)
	}
}

func TestAppendLog_OtherOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	w := env.do(t, http.MethodPost, "/api/devices/"+id+"/logs", tokenB, `{"event":"other"}`)
	assertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, msgDeviceNotFound)
}

func TestFetchLogs_Limit(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		env.store.SetClock(func() time.Time { return at })
		w := env.do(t, http.MethodPost, "/api/devices/"+id+"/logs", tokenA,
			fmt.Sprintf(`{"event":"units_consumed","value":%d}`, i))
		assertStatus(t, w, http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/api/devices/"+id+"/logs?limit=2", tokenA, "")
	assertStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	logs := body["logs"].([]any)
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	first := logs[0].(map[string]any)
	second := logs[1].(map[string]any)
	if first["value"] != float64(4) || second["value"] != float64(3) {
		t.Errorf("values = %v, %v, want 4, 3", first["value"], second["value"])
	}
	if _, ok := first["timestamp"]; !ok {
		t.Error("entry should carry timestamp")
	}

	w = env.do(t, http.MethodGet, "/api/devices/"+id+"/logs?limit=abc", tokenA, "")
	if got := decodeBody(t, w)["count"]; got != float64(5) {
		t.Errorf("count with unparseable limit = %v, want 5", got)
	}
}

func TestFetchLogs_OtherOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	w := env.do(t, http.MethodGet, "/api/devices/"+id+"/logs", tokenB, "")
	assertStatus(t, w, http.StatusNotFound)
}

func TestUsage(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")
	ctx := context.Background()

	now := time.Now().UTC()
	for _, tc := range []struct {
		at    time.Time
		value float64
	}{
		{now.Add(-10 * time.Minute), 5},
		{now.Add(-3 * time.Hour), 7},
		{now.Add(-3 * 24 * time.Hour), 11},
	} {
		at := tc.at
		env.store.SetClock(func() time.Time { return at })
		v := tc.value
		if _, err := env.store.Append(ctx, ownerA, id, "units_consumed", &v); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		query     string
		wantRange string
		wantTotal float64
	}{
		{"", "24h", 12},
		{"?range=1h", "1h", 5},
		{"?range=7d", "7d", 23},
		{"?range=abc", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.wantRange, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/devices/"+id+"/usage"+tt.query, tokenA, "")
			assertStatus(t, w, http.StatusOK)

			body := decodeBody(t, w)
			if body["device_id"] != id {
				t.Errorf("device_id = %v", body["device_id"])
			}
			if body["total_units_last"] != tt.wantRange {
				t.Errorf("total_units_last = %v, want %s", body["total_units_last"], tt.wantRange)
			}
			if body["total_units"] != tt.wantTotal {
				t.Errorf("total_units = %v, want %v", body["total_units"], tt.wantTotal)
			}
		})
	}
}

func TestUsage_OtherOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerDevice(t, tokenA, "meter", "meter")

	w := env.do(t, http.MethodGet, "/api/devices/"+id+"/usage", tokenB, "")
	assertStatus(t, w, http.StatusNotFound)
	assertMessage(t, w, msgDeviceNotFound)
}
