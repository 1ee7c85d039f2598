package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/middleware"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/services"
)

type APIKeyHandler struct {
	apiKeyService *services.APIKeyService
	authService   *services.AuthService
	cfg           *config.Config
}

func NewAPIKeyHandler(ks *services.APIKeyService, as *services.AuthService, cfg *config.Config) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: ks, authService: as, cfg: cfg}
}

type apiKeyResponse struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Issued time.Time `json:"issued"`
	Expiry time.Time `json:"expiry"`
	Scopes []string  `json:"scopes,omitempty"`
}

func newAPIKeyResponse(k *models.APIKey, scopes []string) apiKeyResponse {
	return apiKeyResponse{ID: k.ID, Name: k.Name, Issued: k.Issued, Expiry: k.Expiry, Scopes: scopes}
}

type createAPIKeyRequest struct {
	Name            string `json:"name" binding:"required"`
	LifespanSeconds *int64 `json:"lifespan_seconds"`
}

// Create handles POST /api-keys
func (h *APIKeyHandler) Create(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	lifespan := h.cfg.Lifespans.AccessToken
	if req.LifespanSeconds != nil {
		lifespan = time.Duration(*req.LifespanSeconds) * time.Second
	}

	k, err := h.apiKeyService.Create(c.Request.Context(), authz.UserID(), req.Name, lifespan)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"api_key": newAPIKeyResponse(k, nil)})
}

// List handles GET /api-keys
func (h *APIKeyHandler) List(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	keys, err := h.apiKeyService.List(c.Request.Context(), authz.UserID())
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		scopes, err := h.apiKeyService.ScopeNames(c.Request.Context(), keys[i].ID)
		if err != nil {
			renderError(c, h.cfg, err)
			return
		}
		out = append(out, newAPIKeyResponse(&keys[i], scopes))
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": out})
}

// Get handles GET /api-keys/:id
func (h *APIKeyHandler) Get(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	k, err := h.apiKeyService.Get(c.Request.Context(), authz.UserID(), c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	scopes, err := h.apiKeyService.ScopeNames(c.Request.Context(), k.ID)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_key": newAPIKeyResponse(k, scopes)})
}

type renameAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename handles PATCH /api-keys/:id
func (h *APIKeyHandler) Rename(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req renameAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	k, err := h.apiKeyService.Rename(c.Request.Context(), authz.UserID(), c.Param("id"), req.Name)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_key": newAPIKeyResponse(k, nil)})
}

// Delete handles DELETE /api-keys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.apiKeyService.Delete(c.Request.Context(), authz.UserID(), c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Reveal handles GET /api-keys/:id/jwt
// Renders the key's bearer form for the owner to copy into a client.
func (h *APIKeyHandler) Reveal(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	encoded, err := h.apiKeyService.Encode(c.Request.Context(), authz.UserID(), c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": encoded})
}

type apiKeyScopeRequest struct {
	Scope string `json:"scope" binding:"required"`
}

// AddScope handles POST /api-keys/:id/scopes
func (h *APIKeyHandler) AddScope(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req apiKeyScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.apiKeyService.AddScope(c.Request.Context(), authz.UserID(), c.Param("id"), req.Scope); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{})
}

// RemoveScope handles DELETE /api-keys/:id/scopes/:scope
func (h *APIKeyHandler) RemoveScope(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.apiKeyService.RemoveScope(c.Request.Context(), authz.UserID(), c.Param("id"), c.Param("scope")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ListSessions handles GET /access-tokens
func (h *APIKeyHandler) ListSessions(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	tokens, err := h.authService.ListSessions(c.Request.Context(), authz.UserID())
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	out := make([]*accessTokenResponse, 0, len(tokens))
	for i := range tokens {
		out = append(out, newAccessTokenResponse(&tokens[i]))
	}
	c.JSON(http.StatusOK, gin.H{"access_tokens": out})
}

// RevokeSession handles DELETE /access-tokens/:id
func (h *APIKeyHandler) RevokeSession(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.authService.RevokeSession(c.Request.Context(), authz.UserID(), c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
