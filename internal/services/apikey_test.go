package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskabbes/gallery-api/internal/auth"
)

func setupAPIKeys(t *testing.T) (*testEnv, *APIKeyService) {
	env := setupEnv(t)
	return env, NewAPIKeyService(env.store, env.cfg, env.creds)
}

func TestAPIKeyLifecycle(t *testing.T) {
	env, keys := setupAPIKeys(t)
	user := createEnvUser(t, env, "alice@example.com", "pw")

	k, err := keys.Create(context.Background(), user.ID, "ci", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "ci", k.Name)

	// name is unique per user
	_, err = keys.Create(context.Background(), user.ID, "ci", time.Hour)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindAlreadyExists, authErr.Kind)

	// a different user may reuse the name
	bob := createEnvUser(t, env, "bob@example.com", "pw")
	_, err = keys.Create(context.Background(), bob.ID, "ci", time.Hour)
	assert.NoError(t, err)

	listed, err := keys.List(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	renamed, err := keys.Rename(context.Background(), user.ID, k.ID, "deploy")
	require.NoError(t, err)
	assert.Equal(t, "deploy", renamed.Name)

	require.NoError(t, keys.Delete(context.Background(), user.ID, k.ID))
	_, err = keys.Get(context.Background(), user.ID, k.ID)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindNotFound, authErr.Kind)
}

func TestAPIKeyOwnership(t *testing.T) {
	env, keys := setupAPIKeys(t)
	alice := createEnvUser(t, env, "alice@example.com", "pw")
	bob := createEnvUser(t, env, "bob@example.com", "pw")

	k, err := keys.Create(context.Background(), alice.ID, "ci", time.Hour)
	require.NoError(t, err)

	// other users see not-found, never forbidden
	_, err = keys.Get(context.Background(), bob.ID, k.ID)
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindNotFound, authErr.Kind)

	_, err = keys.Encode(context.Background(), bob.ID, k.ID)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindNotFound, authErr.Kind)
}

func TestAPIKeyScopesAndVerification(t *testing.T) {
	env, keys := setupAPIKeys(t)
	user := createEnvUser(t, env, "alice@example.com", "pw")

	k, err := keys.Create(context.Background(), user.ID, "ci", 30*24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, keys.AddScope(context.Background(), user.ID, k.ID, "users.read"))

	// double grant conflicts
	err = keys.AddScope(context.Background(), user.ID, k.ID, "users.read")
	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindAlreadyExists, authErr.Kind)

	// unknown scope name
	err = keys.AddScope(context.Background(), user.ID, k.ID, "nope")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindNotFound, authErr.Kind)

	names, err := keys.ScopeNames(context.Background(), k.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.read"}, names)

	// the encoded key authenticates with exactly its granted scopes
	encoded, err := keys.Encode(context.Background(), user.ID, k.ID)
	require.NoError(t, err)
	authz, err := env.verifier.Verify(context.Background(), encoded, auth.Options{
		RequiredScopes: []string{"users.read"},
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authz.UserID())

	require.NoError(t, keys.RemoveScope(context.Background(), user.ID, k.ID, "users.read"))
	_, err = env.verifier.Verify(context.Background(), encoded, auth.Options{
		RequiredScopes: []string{"users.read"},
	})
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.KindNotPermitted, authErr.Kind)
}
