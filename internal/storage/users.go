package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/mattn/go-sqlite3"
)

// CreateUser inserts a user. A taken username returns common.ErrDuplicateEntry.
func (s *store) CreateUser(ctx context.Context, username string, passwordHash []byte) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	if len(passwordHash) == 0 {
		return nil, fmt.Errorf("%w: passwordHash", ErrNilParameter)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
	`, user.Username, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username %q", common.ErrDuplicateEntry, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return user, nil
}

// GetUserByUsername returns common.ErrNotFound for unknown usernames.
func (s *store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "username = ?", strings.TrimSpace(username))
}

// GetUserByID returns common.ErrNotFound for unknown ids.
func (s *store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(id); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "id = ?", id)
}

func (s *store) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User
	err := s.q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE `+where, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
