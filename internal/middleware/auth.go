package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/token"
)

const authorizationKey = "authorization"

// HarvestToken collects the candidate token from the Authorization header and
// the session cookie. Presenting two different values is an error; the same
// value twice is fine.
func HarvestToken(c *gin.Context, cookieName string) (string, *auth.Error) {
	sources := map[string]string{}

	if header := c.GetHeader("Authorization"); header != "" {
		sources[token.SourceBearer] = strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		sources[token.SourceCookie] = cookie
	}

	merged, conflict := token.Merge(sources)
	if conflict != nil {
		return "", auth.ErrMultipleTokens(conflict.Sources, conflict.Count)
	}
	return merged, nil
}

// Authenticate verifies the presented credential and aborts on failure. The
// resulting Authorization is stored on the context for handlers.
func Authenticate(verifier *auth.Verifier, cfg *config.Config, opts auth.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, harvestErr := HarvestToken(c, cfg.CookieName)
		if harvestErr != nil {
			abortWithAuthError(c, cfg, harvestErr)
			return
		}

		authz, err := verifier.Verify(c.Request.Context(), raw, opts)
		if err != nil {
			var authErr *auth.Error
			if errors.As(err, &authErr) {
				abortWithAuthError(c, cfg, authErr)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"detail": "Internal server error",
			})
			return
		}

		c.Set(authorizationKey, authz)
		c.Next()
	}
}

// OptionalAuthenticate verifies when a credential is present but never
// aborts; handlers see either the Authorization or nothing.
func OptionalAuthenticate(verifier *auth.Verifier, cfg *config.Config, opts auth.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, harvestErr := HarvestToken(c, cfg.CookieName)
		if harvestErr != nil || raw == "" {
			c.Next()
			return
		}
		if authz, err := verifier.Verify(c.Request.Context(), raw, opts); err == nil {
			c.Set(authorizationKey, authz)
		}
		c.Next()
	}
}

// GetAuthorization fetches the verified Authorization from the context. The
// second return is false on unauthenticated optional routes.
func GetAuthorization(c *gin.Context) (*auth.Authorization, bool) {
	v, ok := c.Get(authorizationKey)
	if !ok {
		return nil, false
	}
	authz, ok := v.(*auth.Authorization)
	return authz, ok
}

// abortWithAuthError renders the failure. When the error carries the logout
// flag the response instructs the frontend to discard the session: the logout
// header is set and the cookie cleared.
func abortWithAuthError(c *gin.Context, cfg *config.Config, authErr *auth.Error) {
	if authErr.Logout {
		c.Header(cfg.LogoutHeader, "true")
		ClearSessionCookie(c, cfg)
	}
	c.AbortWithStatusJSON(authErr.Status, gin.H{
		"detail": authErr.Detail,
	})
}

// SetSessionCookie attaches the encoded session token. maxAge 0 makes it a
// browser-session cookie for users who decline to stay signed in.
func SetSessionCookie(c *gin.Context, cfg *config.Config, encoded string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, encoded, maxAge, "/", "", cfg.CookieSecure, true)
}

func ClearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
