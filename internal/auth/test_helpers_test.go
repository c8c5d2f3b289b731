package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/telemetry-core/internal/infrastructure/config"
	"github.com/nerrad567/telemetry-core/internal/infrastructure/database"
	_ "github.com/nerrad567/telemetry-core/migrations"
)

const testSecret = "test-secret-key-for-jwt-signing"

// testDB opens a migrated SQLite file in a temp dir.
func testDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *SQLiteUserRepository) {
	t.Helper()
	repo := NewUserRepository(testDB(t).DB)
	return NewService(repo, testSecret, 0), repo
}

// seedTestUser signs up an account and fails the test on error.
func seedTestUser(t *testing.T, svc *Service, email, password string) *User {
	t.Helper()
	u, err := svc.Signup(context.Background(), SignupRequest{
		Name:     "Test User",
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Signup(%q) error = %v", email, err)
	}
	return u
}
