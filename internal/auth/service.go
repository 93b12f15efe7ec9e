package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// Service registers and authenticates users, handing back a session token.
type Service struct {
	users    storage.UserStore
	sessions *SessionManager
	now      func() time.Time
}

func NewService(users storage.UserStore, sessions *SessionManager) *Service {
	return &Service{users: users, sessions: sessions, now: time.Now}
}

func (s *Service) Sessions() *SessionManager { return s.sessions }

// Register creates an account and returns a session for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, core.User, error) {
	name = strings.TrimSpace(name)
	email = core.NormalizeEmail(email)
	if err := core.ValidateRegistration(name, email, password); err != nil {
		return "", core.User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", core.User{}, err
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RegisteredAt: s.now().UTC(),
	})
	if err != nil {
		return "", core.User{}, err
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", core.User{}, err
	}
	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return token, user, nil
}

// Login verifies credentials. Unknown email and wrong password both yield
// core.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	user, err := s.users.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.User{}, core.ErrInvalidCredentials
		}
		return "", core.User{}, fmt.Errorf("login: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		slog.WarnContext(ctx, "Login failed", "user_id", user.ID)
		return "", core.User{}, core.ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", core.User{}, err
	}
	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

// Authenticate resolves a token to the stored user. A valid token whose user
// no longer exists is reported as core.ErrMissingSession.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	id, err := s.sessions.Resolve(token)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrMissingSession
		}
		return core.User{}, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}
