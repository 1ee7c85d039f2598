package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/token"
)

func setupMiddleware(t *testing.T) (*auth.Verifier, *store.Store, *config.Config) {
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = ":memory:"
	cfg.JWTSecret = "test-secret"

	s, err := store.New(cfg)
	require.NoError(t, err)

	codec := token.NewCodec(cfg.JWTSecret)
	return auth.NewVerifier(s, cfg, codec, metrics.NewNoop()), s, cfg
}

func issueSession(t *testing.T, v *auth.Verifier, s *store.Store, cfg *config.Config) string {
	user := &models.User{
		ID:     uuid.New().String(),
		Email:  uuid.New().String() + "@example.com",
		RoleID: cfg.DefaultRoleID(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	now := time.Now().UTC()
	at := &models.AccessToken{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Issued: now,
		Expiry: now.Add(time.Hour),
	}
	require.NoError(t, s.CreateAccessToken(context.Background(), at))

	encoded, err := v.Codec().Encode(token.FromCredential(at))
	require.NoError(t, err)
	return encoded
}

func protectedRouter(v *auth.Verifier, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.GET("/protected", Authenticate(v, cfg, auth.Options{}), func(c *gin.Context) {
		authz, _ := GetAuthorization(c)
		c.JSON(http.StatusOK, gin.H{"user_id": authz.UserID()})
	})
	router.GET("/optional", OptionalAuthenticate(v, cfg, auth.Options{}), func(c *gin.Context) {
		_, ok := GetAuthorization(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return router
}

func TestAuthenticateMissingToken(t *testing.T) {
	v, _, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "true", w.Header().Get(cfg.LogoutHeader))
	assert.Contains(t, w.Body.String(), "Missing Authorization")
}

func TestAuthenticateBearer(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)
	encoded := issueSession(t, v, s, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+encoded)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(cfg.LogoutHeader))
}

func TestAuthenticateCookie(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)
	encoded := issueSession(t, v, s, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: encoded})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateSameTokenBothSources(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)
	encoded := issueSession(t, v, s, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+encoded)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: encoded})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateConflictingTokens(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)
	first := issueSession(t, v, s, cfg)
	second := issueSession(t, v, s, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+first)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: second})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "2 different tokens")
	// both tokens are individually valid; no logout
	assert.Empty(t, w.Header().Get(cfg.LogoutHeader))
}

func TestAuthenticateExpiredClearsCookie(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)

	user := &models.User{
		ID:     uuid.New().String(),
		Email:  "stale@example.com",
		RoleID: cfg.DefaultRoleID(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	at := &models.AccessToken{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Issued: time.Now().UTC().Add(-2 * time.Hour),
		Expiry: time.Now().UTC().Add(-time.Hour),
	}
	encoded, err := v.Codec().Encode(token.FromCredential(at))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: encoded})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "true", w.Header().Get(cfg.LogoutHeader))

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cfg.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestOptionalAuthenticate(t *testing.T) {
	v, s, cfg := setupMiddleware(t)
	router := protectedRouter(v, cfg)

	// no token still reaches the handler
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "false")

	// a valid token is picked up
	encoded := issueSession(t, v, s, cfg)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+encoded)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "true")

	// a bad token is ignored rather than rejected
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "false")
}
