package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/token"
)

func setupVerifier(t *testing.T) (*Verifier, *store.Store, *config.Config) {
	cfg := config.Load()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = ":memory:"
	cfg.JWTSecret = "test-secret"

	s, err := store.New(cfg)
	require.NoError(t, err)

	codec := token.NewCodec(cfg.JWTSecret)
	return NewVerifier(s, cfg, codec, metrics.NewNoop()), s, cfg
}

func createTestUser(t *testing.T, s *store.Store, cfg *config.Config, roleName string) *models.User {
	user := &models.User{
		ID:     uuid.New().String(),
		Email:  uuid.New().String() + "@example.com",
		RoleID: cfg.RoleNameToID[roleName],
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createSessionToken(t *testing.T, v *Verifier, s *store.Store, userID string, issued time.Time, lifespan time.Duration) (*models.AccessToken, string) {
	at := &models.AccessToken{
		ID:     uuid.New().String(),
		UserID: userID,
		Issued: issued,
		Expiry: issued.Add(lifespan),
	}
	require.NoError(t, s.CreateAccessToken(context.Background(), at))
	encoded, err := v.Codec().Encode(token.FromCredential(at))
	require.NoError(t, err)
	return at, encoded
}

func TestVerifyAccessToken(t *testing.T) {
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Truncate(time.Second)
	_, encoded := createSessionToken(t, v, s, user.ID, issued, 7*24*time.Hour)

	authz, err := v.Verify(context.Background(), encoded, Options{
		Now: issued.Add(6 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authz.UserID())
	assert.NotNil(t, authz.AccessToken())
	assert.True(t, authz.ScopeIDs.Contains(cfg.ScopeNameToID["users.read"]))
	assert.False(t, authz.ScopeIDs.Contains(cfg.ScopeNameToID["admin"]))
}

func TestVerifyMissingToken(t *testing.T) {
	v, _, _ := setupVerifier(t)

	_, err := v.Verify(context.Background(), "", Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindMissingAuthorization, authErr.Kind)
	assert.Equal(t, 401, authErr.Status)
	assert.True(t, authErr.Logout)
}

func TestVerifyImproperFormat(t *testing.T) {
	v, _, _ := setupVerifier(t)

	_, err := v.Verify(context.Background(), "garbage", Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindImproperFormat, authErr.Kind)
	assert.Equal(t, 400, authErr.Status)
	assert.True(t, authErr.Logout)
}

func TestVerifyExpiredByClaims(t *testing.T) {
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Add(-8 * 24 * time.Hour).Truncate(time.Second)
	_, encoded := createSessionToken(t, v, s, user.ID, issued, 7*24*time.Hour)

	_, err := v.Verify(context.Background(), encoded, Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindExpired, authErr.Kind)
	assert.True(t, authErr.Logout)
}

func TestVerifyExpiredRowDeletedOnRead(t *testing.T) {
	// A token whose claims pass (wide override) but whose row is stale is
	// collected on sight.
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	at := &models.AccessToken{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Issued: issued,
		Expiry: issued.Add(10 * time.Minute),
	}
	require.NoError(t, s.CreateAccessToken(context.Background(), at))

	_, err := v.VerifyTableCredential(context.Background(), at, Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindExpired, authErr.Kind)

	_, err = s.GetAccessTokenByID(context.Background(), at.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestVerifyRevokedTokenMaskedAsExpired(t *testing.T) {
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Truncate(time.Second)
	at, encoded := createSessionToken(t, v, s, user.ID, issued, 7*24*time.Hour)
	require.NoError(t, s.DeleteAccessToken(context.Background(), at.ID))

	_, err := v.Verify(context.Background(), encoded, Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindExpired, authErr.Kind)
}

func TestVerifyTypeNotPermitted(t *testing.T) {
	v, _, cfg := setupVerifier(t)

	now := time.Now().UTC()
	signUp := &models.SignUp{
		Email:  "new@example.com",
		Issued: now,
		Expiry: now.Add(cfg.Lifespans.RequestSignUp),
	}
	encoded, err := v.Codec().Encode(token.FromCredential(signUp))
	require.NoError(t, err)

	// default allowlist covers sessions and API keys only
	_, err = v.Verify(context.Background(), encoded, Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindTypeNotPermitted, authErr.Kind)
	assert.False(t, authErr.Logout)
}

func TestVerifySignUpToken(t *testing.T) {
	v, _, cfg := setupVerifier(t)

	now := time.Now().UTC().Truncate(time.Second)
	signUp := &models.SignUp{
		Email:  "new@example.com",
		Issued: now,
		Expiry: now.Add(cfg.Lifespans.RequestSignUp),
	}
	encoded, err := v.Codec().Encode(token.FromCredential(signUp))
	require.NoError(t, err)

	authz, err := v.Verify(context.Background(), encoded, Options{
		PermittedTypes: []string{config.CredentialSignUp},
	})
	require.NoError(t, err)
	assert.Nil(t, authz.User)
	assert.Empty(t, authz.ScopeIDs.IDs())
	got, ok := authz.Credential.(*models.SignUp)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", got.Email)

	// identity-only credentials can never satisfy scope requirements
	_, err = v.Verify(context.Background(), encoded, Options{
		PermittedTypes: []string{config.CredentialSignUp},
		RequiredScopes: []string{"users.read"},
	})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindNotPermitted, authErr.Kind)
	assert.Equal(t, 403, authErr.Status)
}

func TestVerifyUserNotFound(t *testing.T) {
	v, s, _ := setupVerifier(t)

	issued := time.Now().UTC().Truncate(time.Second)
	_, encoded := createSessionToken(t, v, s, uuid.New().String(), issued, time.Hour)

	_, err := v.Verify(context.Background(), encoded, Options{})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindUserNotFound, authErr.Kind)
	assert.True(t, authErr.Logout)
}

func TestVerifyAPIKeyScopes(t *testing.T) {
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	now := time.Now().UTC().Truncate(time.Second)
	key := &models.APIKey{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Name:   "ci",
		Issued: now,
		Expiry: now.Add(30 * 24 * time.Hour),
	}
	require.NoError(t, s.CreateAPIKey(context.Background(), key))
	require.NoError(t, s.AddAPIKeyScope(context.Background(), key.ID, cfg.ScopeNameToID["users.read"]))

	encoded, err := v.Codec().Encode(token.FromCredential(key))
	require.NoError(t, err)

	// granted scope passes
	authz, err := v.Verify(context.Background(), encoded, Options{
		RequiredScopes: []string{"users.read"},
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authz.UserID())
	assert.Equal(t, []int{cfg.ScopeNameToID["users.read"]}, authz.ScopeIDs.IDs())

	// scopes come from the key's grants, not the owning user's role
	_, err = v.Verify(context.Background(), encoded, Options{
		RequiredScopes: []string{"users.write"},
	})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindNotPermitted, authErr.Kind)
	assert.False(t, authErr.Logout)
}

func TestVerifyCountsOutcomes(t *testing.T) {
	cfg := config.Load()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = ":memory:"
	cfg.JWTSecret = "test-secret"

	s, err := store.New(cfg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	v := NewVerifier(s, cfg, token.NewCodec(cfg.JWTSecret), metrics.New(reg))
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Truncate(time.Second)
	_, encoded := createSessionToken(t, v, s, user.ID, issued, time.Hour)

	_, err = v.Verify(context.Background(), encoded, Options{})
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "garbage", Options{})
	require.Error(t, err)

	// one authorized access_token series, one rejected unknown series
	families, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "auth_verifications_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			outcomes[labels["credential_type"]+"/"+labels["outcome"]] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		config.CredentialAccessToken + "/" + metrics.OutcomeAuthorized: 1,
		"unknown/" + metrics.OutcomeRejected:                           1,
	}, outcomes)
}

func TestVerifyOverrideLifetime(t *testing.T) {
	v, s, cfg := setupVerifier(t)
	user := createTestUser(t, s, cfg, config.RoleUser)

	issued := time.Now().UTC().Truncate(time.Second)
	_, encoded := createSessionToken(t, v, s, user.ID, issued, 7*24*time.Hour)

	// a magic link is an access token judged under a tighter window
	_, err := v.Verify(context.Background(), encoded, Options{
		PermittedTypes:   []string{config.CredentialAccessToken},
		OverrideLifetime: 10 * time.Minute,
		Now:              issued.Add(11 * time.Minute),
	})
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindExpired, authErr.Kind)

	authz, err := v.Verify(context.Background(), encoded, Options{
		PermittedTypes:   []string{config.CredentialAccessToken},
		OverrideLifetime: 10 * time.Minute,
		Now:              issued.Add(9 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authz.UserID())
}
