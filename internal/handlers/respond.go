package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/middleware"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/services"
)

// renderError maps typed authorization failures onto their status and detail,
// applying the logout header and cookie clear when flagged. Anything else is
// an internal fault.
func renderError(c *gin.Context, cfg *config.Config, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		if authErr.Logout {
			c.Header(cfg.LogoutHeader, "true")
			middleware.ClearSessionCookie(c, cfg)
		}
		c.JSON(authErr.Status, gin.H{"detail": authErr.Detail})
		return
	}
	log.Printf("[Handlers] unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// userPrivate is the owner's view of their account.
type userPrivate struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	RoleID      int     `json:"role_id"`
}

// userPublic is what other users see; only users with a username are public.
type userPublic struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func newUserPrivate(u *models.User) *userPrivate {
	return &userPrivate{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		RoleID:      u.RoleID,
	}
}

func newUserPublic(u *models.User) *userPublic {
	username := ""
	if u.Username != nil {
		username = *u.Username
	}
	return &userPublic{ID: u.ID, Username: username}
}

type accessTokenResponse struct {
	ID     string    `json:"id"`
	Issued time.Time `json:"issued"`
	Expiry time.Time `json:"expiry"`
}

func newAccessTokenResponse(t *models.AccessToken) *accessTokenResponse {
	return &accessTokenResponse{ID: t.ID, Issued: t.Issued, Expiry: t.Expiry}
}

// sessionResponse is the envelope returned by every login and by the session
// info endpoint.
type sessionResponse struct {
	Auth authBlock `json:"auth"`
}

type authBlock struct {
	User        *userPrivate         `json:"user"`
	ScopeIDs    []int                `json:"scope_ids"`
	AccessToken *accessTokenResponse `json:"access_token,omitempty"`
}

func newSessionResponse(info *services.SessionInfo) sessionResponse {
	return sessionResponse{Auth: authBlock{
		User:        newUserPrivate(info.User),
		ScopeIDs:    info.ScopeIDs.IDs(),
		AccessToken: newAccessTokenResponse(info.AccessToken),
	}}
}
