package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/middleware"
	"github.com/jameskabbes/gallery-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	cfg         *config.Config
}

func NewUserHandler(us *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{userService: us, cfg: cfg}
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	authz, ok := middleware.GetAuthorization(c)
	if !ok || authz.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserPrivate(authz.User)})
}

type updateMeRequest struct {
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

// UpdateMe handles PATCH /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	authz, ok := middleware.GetAuthorization(c)
	if !ok || authz.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), authz.User, req.Username, req.PhoneNumber, req.Password)
	if err != nil {
		if err == services.ErrUsernameTaken {
			c.JSON(http.StatusConflict, gin.H{"detail": "Username already in use"})
			return
		}
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserPrivate(user)})
}

// DeleteMe handles DELETE /users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	authz, ok := middleware.GetAuthorization(c)
	if !ok || authz.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	if err := h.userService.Delete(c.Request.Context(), authz.UserID()); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	middleware.ClearSessionCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{})
}

// GetByUsername handles GET /users/:username
// Public profiles only; users without a username are not exposed.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	username := c.Param("username")

	user, err := h.userService.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if err == services.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			return
		}
		renderError(c, h.cfg, err)
		return
	}
	if !user.IsPublic() {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserPublic(user)})
}
