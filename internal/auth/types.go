package auth

import (
	"context"
	"errors"
	"time"
)

// Role is the account role carried in access tokens.
type Role string

const (
	// RoleUser is the default role for new accounts.
	RoleUser Role = "user"

	// RoleAdmin marks operator accounts. Device ownership checks apply to
	// admins exactly as they do to users.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role accepted at signup.
var ValidRoles = []Role{RoleUser, RoleAdmin}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User is an account that owns devices.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// SignupRequest carries the fields accepted when creating an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Role   Role
}

// Authenticator resolves a request credential to a caller identity.
// *Service is the JWT implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// Sentinel errors for authentication.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
)
