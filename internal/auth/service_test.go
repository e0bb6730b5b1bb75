package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.arena.debate/internal/config"
	"dev.arena.debate/internal/database"
)

func newService(ttl time.Duration) *Service {
	return NewService(database.NewMemoryStore(), config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	}, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(time.Hour)

	user, err := svc.Register(context.Background(), "alex", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alex", user.Username)
	assert.NotEmpty(t, user.PlayerID)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	token, logged, err := svc.Login(context.Background(), "alex", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newService(time.Hour)

	_, err := svc.Register(context.Background(), "alex", "pw-one-long-enough")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alex", "pw-two-long-enough")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_EmptyFields(t *testing.T) {
	svc := newService(time.Hour)

	_, err := svc.Register(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), "alex", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newService(time.Hour)

	_, err := svc.Register(context.Background(), "alex", "correct-password")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alex", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	svc := newService(time.Hour)

	user, err := svc.Register(context.Background(), "alex", "correct-password")
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "alex", "correct-password")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, user.PlayerID, claims.PlayerID)
	assert.Equal(t, "alex", claims.Username)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newService(time.Hour)

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	svc := newService(-time.Minute)

	_, err := svc.Register(context.Background(), "alex", "correct-password")
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "alex", "correct-password")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	svc := newService(time.Hour)
	other := NewService(database.NewMemoryStore(), config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour}, nil)

	_, err := svc.Register(context.Background(), "alex", "correct-password")
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "alex", "correct-password")
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
