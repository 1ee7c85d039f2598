package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/middleware"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/services"
	"github.com/jameskabbes/gallery-api/internal/store"
)

type GalleryHandler struct {
	galleryService *services.GalleryService
	cfg            *config.Config
}

func NewGalleryHandler(gs *services.GalleryService, cfg *config.Config) *GalleryHandler {
	return &GalleryHandler{galleryService: gs, cfg: cfg}
}

type galleryResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	VisibilityLevel int        `json:"visibility_level"`
	ParentID        *string    `json:"parent_id"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
}

func newGalleryResponse(g *models.Gallery) galleryResponse {
	return galleryResponse{
		ID:              g.ID,
		UserID:          g.UserID,
		Name:            g.Name,
		VisibilityLevel: g.VisibilityLevel,
		ParentID:        g.ParentID,
		Description:     g.Description,
		Date:            g.Date,
	}
}

func galleryListResponse(galleries []models.Gallery) []galleryResponse {
	out := make([]galleryResponse, 0, len(galleries))
	for i := range galleries {
		out = append(out, newGalleryResponse(&galleries[i]))
	}
	return out
}

type createGalleryRequest struct {
	Name            string  `json:"name" binding:"required"`
	VisibilityLevel int     `json:"visibility_level" binding:"required"`
	ParentID        *string `json:"parent_id"`
}

// Create handles POST /galleries
func (h *GalleryHandler) Create(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req createGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.VisibilityLevel != models.VisibilityPublic && req.VisibilityLevel != models.VisibilityPrivate {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid visibility level"})
		return
	}

	g, err := h.galleryService.Create(c.Request.Context(), authz.UserID(), req.Name, req.VisibilityLevel, req.ParentID)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"gallery": newGalleryResponse(g)})
}

// Get handles GET /galleries/:id
func (h *GalleryHandler) Get(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	g, err := h.galleryService.Get(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gallery": newGalleryResponse(g)})
}

// ListMine handles GET /galleries
func (h *GalleryHandler) ListMine(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page := store.NormalizePage(pageNum, pageSize)

	galleries, info, err := h.galleryService.ListByUser(c.Request.Context(), authz.UserID(), page)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"galleries": galleryListResponse(galleries), "pagination": info})
}

// ListChildren handles GET /galleries/:id/children
func (h *GalleryHandler) ListChildren(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	children, err := h.galleryService.ListChildren(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"galleries": galleryListResponse(children)})
}

type updateGalleryRequest struct {
	Name            *string    `json:"name"`
	VisibilityLevel *int       `json:"visibility_level"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
	ParentID        *string    `json:"parent_id"`
}

// Update handles PATCH /galleries/:id
func (h *GalleryHandler) Update(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req updateGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.VisibilityLevel != nil &&
		*req.VisibilityLevel != models.VisibilityPublic && *req.VisibilityLevel != models.VisibilityPrivate {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid visibility level"})
		return
	}

	g, err := h.galleryService.Update(c.Request.Context(), authz, c.Param("id"), services.GalleryUpdate{
		Name:            req.Name,
		VisibilityLevel: req.VisibilityLevel,
		Description:     req.Description,
		Date:            req.Date,
		ParentID:        req.ParentID,
	})
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gallery": newGalleryResponse(g)})
}

// Delete handles DELETE /galleries/:id
func (h *GalleryHandler) Delete(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.galleryService.Delete(c.Request.Context(), authz, c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type grantPermissionRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	PermissionLevel int    `json:"permission_level" binding:"required"`
}

// GrantPermission handles PUT /galleries/:id/permissions
func (h *GalleryHandler) GrantPermission(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req grantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.PermissionLevel != models.PermissionViewer && req.PermissionLevel != models.PermissionEditor {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid permission level"})
		return
	}

	if err := h.galleryService.Grant(c.Request.Context(), authz, c.Param("id"), req.UserID, req.PermissionLevel); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RevokePermission handles DELETE /galleries/:id/permissions/:userID
func (h *GalleryHandler) RevokePermission(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.galleryService.Revoke(c.Request.Context(), authz, c.Param("id"), c.Param("userID")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ListPermissions handles GET /galleries/:id/permissions
func (h *GalleryHandler) ListPermissions(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	perms, err := h.galleryService.Permissions(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}

	type permissionResponse struct {
		UserID          string `json:"user_id"`
		PermissionLevel int    `json:"permission_level"`
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{UserID: p.UserID, PermissionLevel: p.PermissionLevel})
	}
	c.JSON(http.StatusOK, gin.H{"permissions": out})
}
