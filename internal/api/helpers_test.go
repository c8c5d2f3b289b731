package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/telemetry-core/internal/auth"
	"github.com/nerrad567/telemetry-core/internal/device"
	"github.com/nerrad567/telemetry-core/internal/infrastructure/config"
	"github.com/nerrad567/telemetry-core/internal/infrastructure/database"
	"github.com/nerrad567/telemetry-core/internal/infrastructure/logging"
	"github.com/nerrad567/telemetry-core/internal/telemetry"
	_ "github.com/nerrad567/telemetry-core/migrations"
)

const (
	ownerA = "usr-a"
	ownerB = "usr-b"
	tokenA = "token-a"
	tokenB = "token-b"
)

// staticAuthenticator maps fixed tokens to user IDs.
type staticAuthenticator map[string]string

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	if id, ok := a[token]; ok {
		return auth.Identity{UserID: id, Role: auth.RoleUser}, nil
	}
	return auth.Identity{}, auth.ErrTokenInvalid
}

type testEnv struct {
	srv      *Server
	router   http.Handler
	db       *database.DB
	registry *device.Registry
	store    *telemetry.Store
	accounts *auth.Service
}

// newTestEnv wires a server over a migrated SQLite file. opts may adjust
// Deps before the server is built.
func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "api.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	logs := telemetry.NewSQLiteRepository(db.DB)
	store := telemetry.NewStore(logs, registry)
	accounts := auth.NewService(auth.NewUserRepository(db.DB), "test-secret-key-at-least-32-characters-long", 0)

	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Service:       config.ServiceConfig{Name: "telemetry-core", Environment: "development"},
		Logger:        logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test"),
		Registry:      registry,
		Store:         store,
		Aggregator:    telemetry.NewAggregator(logs, registry),
		Accounts:      accounts,
		Authenticator: staticAuthenticator{tokenA: ownerA, tokenB: ownerB},
		DB:            db,
		Version:       "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	registry.SetPublisher(srv.Hub())
	store.SetPublisher(srv.Hub())

	hubCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Hub().Run(hubCtx)

	return &testEnv{
		srv:      srv,
		router:   srv.buildRouter(),
		db:       db,
		registry: registry,
		store:    store,
		accounts: accounts,
	}
}

// do sends a request through the router. An empty token sends no
// Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerDevice creates a device through the API and returns its ID.
func (e *testEnv) registerDevice(t *testing.T, token, name, typ string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/devices", token, `{"name":"`+name+`","type":"`+typ+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	dev := decodeBody(t, w)["device"].(map[string]any)
	return dev["id"].(string)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func assertMessage(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := decodeBody(t, w)["message"]; got != want {
		t.Errorf("message = %v, want %q", got, want)
	}
}
