package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewService(db.Storage, opts...)
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
	assert.NotEqual(t, []byte("s3cret"), user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("s3cret")))

	_, err = svc.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, "bob", "")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = svc.Register(ctx, "  ", "pw")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Len(t, session.Token, 36)
	assert.Equal(t, now.Add(DefaultSessionTTL), session.ExpiresAt)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveUser(t *testing.T) {
	svc := newTestService(t, WithSessionTTL(time.Hour))
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	user, err := svc.ResolveUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.ResolveUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.ResolveUser(ctx, "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	now = now.Add(time.Hour)
	_, err = svc.ResolveUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// The expired session is gone, not just rejected
	now = now.Add(-30 * time.Minute)
	_, err = svc.ResolveUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogout(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.ResolveUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	assert.ErrorIs(t, svc.Logout(ctx, ""), ErrNotLoggedIn)
}

func TestSessionFile(t *testing.T) {
	file := NewSessionFile(filepath.Join(t.TempDir(), "nested", "session"))

	_, err := file.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, file.Save("abc-123"))
	token, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc-123", token)

	require.NoError(t, file.Remove())
	require.NoError(t, file.Remove())
	_, err = file.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
