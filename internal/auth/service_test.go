package auth

import (
	"context"
	"testing"
	"time"

	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/pkg/db/models"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()

	metadata, err := store.NewSQLiteStore(store.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = metadata.Close() })

	ctx := context.Background()
	require.NoError(t, metadata.Connect(ctx))
	require.NoError(t, metadata.Migrate(ctx))

	logger := log.NewLoggerService("test", config.LogServerConfig{
		Level:      "FATAL",
		TimeFormat: "15:04:05",
		NoColor:    true,
	})

	svc := NewService(metadata, logger, config.AuthServerConfig{
		SessionTTL: "1h",
		BcryptCost: 4, // MinCost keeps the test suite fast
	})

	return svc, metadata
}

func TestRegister_CreatesUser(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.False(t, user.ThemeDark)
}

func TestRegister_EmptyInputRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "hunter2")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "different")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_MintsSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	session, user, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_ResolvesUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	session, _, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	svc, metadata := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	expired := &models.Session{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, metadata.CreateSession(ctx, expired))

	_, err = svc.Authenticate(ctx, expired.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	session, _, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestToggleTheme_Flips(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	dark, err := svc.ToggleTheme(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dark)

	dark, err = svc.ToggleTheme(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, dark)
}
