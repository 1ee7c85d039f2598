package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndAuthenticate(t *testing.T) {
	env := setupEnv(t)

	user := createEnvUser(t, env, "alice@example.com", "hunter2hunter2")
	assert.Equal(t, env.cfg.DefaultRoleID(), user.RoleID)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", *user.PasswordHash)

	got, err := env.users.Authenticate(context.Background(), "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.users.Authenticate(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	createEnvUser(t, env, "alice@example.com", "pw")

	password := "pw"
	_, err := env.users.Create(context.Background(), "alice@example.com", &password)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserPasswordlessCannotLogInWithPassword(t *testing.T) {
	env := setupEnv(t)

	user, err := env.users.Create(context.Background(), "link-only@example.com", nil)
	require.NoError(t, err)
	assert.Nil(t, user.PasswordHash)

	_, err = env.users.Authenticate(context.Background(), "link-only@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserUpdateProfile(t *testing.T) {
	env := setupEnv(t)
	alice := createEnvUser(t, env, "alice@example.com", "pw")
	bob := createEnvUser(t, env, "bob@example.com", "pw")

	username := "alice"
	updated, err := env.users.UpdateProfile(context.Background(), alice, &username, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Username)
	assert.Equal(t, "alice", *updated.Username)
	assert.True(t, updated.IsPublic())

	// username once set authenticates like email
	got, err := env.users.Authenticate(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	// taken username is rejected
	_, err = env.users.UpdateProfile(context.Background(), bob, &username, nil, nil)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserDelete(t *testing.T) {
	env := setupEnv(t)
	alice := createEnvUser(t, env, "alice@example.com", "pw")

	require.NoError(t, env.users.Delete(context.Background(), alice.ID))

	_, err := env.users.GetByID(context.Background(), alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
