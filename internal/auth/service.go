package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Logger is the logging surface the service needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Service handles signup, login and token authentication.
type Service struct {
	users  UserRepository
	secret string
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

// NewService creates an auth service signing tokens with secret.
func NewService(users UserRepository, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger.
func (s *Service) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetClock overrides the time source used for token issue times.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account. Name, email and password are required; an
// empty role becomes RoleUser.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if !IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.logger.Warn("login failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := GenerateAccessToken(user, s.secret, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate validates an access token and confirms its user still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return Identity{}, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, fmt.Errorf("%w: unknown subject", ErrTokenInvalid)
		}
		return Identity{}, err
	}
	return Identity{UserID: user.ID, Role: user.Role}, nil
}
