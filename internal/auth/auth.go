// Package auth registers users, checks passwords and manages login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Auth errors.
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionExpired     = errors.New("session expired, please log in again")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrEmptyPassword      = errors.New("password cannot be empty")
)

// Service implements registration, login and session resolution.
type Service struct {
	storage service.Storage
	now     func() time.Time
	ttl     time.Duration
	cost    int
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an auth service backed by storage.
func NewService(storage service.Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		now:     time.Now,
		ttl:     DefaultSessionTTL,
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, username, hash)
	if errors.Is(err, common.ErrDuplicateEntry) {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Registered user", "username", username, "id", user.ID)
	return user, nil
}

// Login checks the password and opens a new session. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	now := s.now()
	if removed, err := s.storage.DeleteExpiredSessions(ctx, now); err != nil {
		slog.Warn("Failed to prune expired sessions", "error", err)
	} else if removed > 0 {
		slog.Debug("Pruned expired sessions", "count", removed)
	}

	session := &model.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("Logged in", "username", user.Username, "expires_at", session.ExpiresAt)
	return session, nil
}

// Logout deletes the session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotLoggedIn
	}
	return s.storage.DeleteSession(ctx, token)
}

// ResolveUser returns the user behind a session token. Unknown and expired
// tokens return ErrSessionExpired.
func (s *Service) ResolveUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	session, err := s.storage.GetSession(ctx, token)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			slog.Warn("Failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	user, err := s.storage.GetUserByID(ctx, session.UserID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	return user, err
}
