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

type FileHandler struct {
	fileService *services.FileService
	cfg         *config.Config
}

func NewFileHandler(fs *services.FileService, cfg *config.Config) *FileHandler {
	return &FileHandler{fileService: fs, cfg: cfg}
}

type fileResponse struct {
	ID        string  `json:"id"`
	GalleryID string  `json:"gallery_id"`
	Stem      string  `json:"stem"`
	Suffix    *string `json:"suffix"`
	Size      *int64  `json:"size"`
}

func newFileResponse(f *models.File) fileResponse {
	return fileResponse{ID: f.ID, GalleryID: f.GalleryID, Stem: f.Stem, Suffix: f.Suffix, Size: f.Size}
}

type imageVersionResponse struct {
	ID           string     `json:"id"`
	GalleryID    string     `json:"gallery_id"`
	BaseName     *string    `json:"base_name"`
	ParentID     *string    `json:"parent_id"`
	Version      *string    `json:"version"`
	Taken        *time.Time `json:"taken"`
	Description  *string    `json:"description"`
	AspectRatio  *float64   `json:"aspect_ratio"`
	AverageColor *string    `json:"average_color"`
}

func newImageVersionResponse(v *models.ImageVersion) imageVersionResponse {
	return imageVersionResponse{
		ID:           v.ID,
		GalleryID:    v.GalleryID,
		BaseName:     v.BaseName,
		ParentID:     v.ParentID,
		Version:      v.Version,
		Taken:        v.Taken,
		Description:  v.Description,
		AspectRatio:  v.AspectRatio,
		AverageColor: v.AverageColor,
	}
}

type createFileRequest struct {
	Stem   string  `json:"stem" binding:"required"`
	Suffix *string `json:"suffix"`
	Size   *int64  `json:"size"`
}

// CreateFile handles POST /galleries/:id/files
func (h *FileHandler) CreateFile(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	f, err := h.fileService.CreateFile(c.Request.Context(), authz, c.Param("id"), req.Stem, req.Suffix, req.Size)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": newFileResponse(f)})
}

// ListFiles handles GET /galleries/:id/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	files, err := h.fileService.ListFiles(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for i := range files {
		out = append(out, newFileResponse(&files[i]))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

// GetFile handles GET /files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	f, err := h.fileService.GetFile(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": newFileResponse(f)})
}

// DeleteFile handles DELETE /files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.fileService.DeleteFile(c.Request.Context(), authz, c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type createImageVersionRequest struct {
	BaseName *string `json:"base_name"`
	ParentID *string `json:"parent_id"`
}

// CreateImageVersion handles POST /galleries/:id/image-versions
func (h *FileHandler) CreateImageVersion(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req createImageVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	v, err := h.fileService.CreateImageVersion(c.Request.Context(), authz, c.Param("id"), req.BaseName, req.ParentID)
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image_version": newImageVersionResponse(v)})
}

// ListImageVersions handles GET /galleries/:id/image-versions
func (h *FileHandler) ListImageVersions(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	versions, err := h.fileService.ListImageVersions(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	out := make([]imageVersionResponse, 0, len(versions))
	for i := range versions {
		out = append(out, newImageVersionResponse(&versions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"image_versions": out})
}

type updateImageVersionRequest struct {
	BaseName     *string    `json:"base_name"`
	Version      *string    `json:"version"`
	Taken        *time.Time `json:"taken"`
	Description  *string    `json:"description"`
	AspectRatio  *float64   `json:"aspect_ratio"`
	AverageColor *string    `json:"average_color"`
}

// UpdateImageVersion handles PATCH /image-versions/:id
func (h *FileHandler) UpdateImageVersion(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req updateImageVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	v, err := h.fileService.UpdateImageVersion(c.Request.Context(), authz, c.Param("id"), services.ImageVersionUpdate{
		BaseName:     req.BaseName,
		Version:      req.Version,
		Taken:        req.Taken,
		Description:  req.Description,
		AspectRatio:  req.AspectRatio,
		AverageColor: req.AverageColor,
	})
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_version": newImageVersionResponse(v)})
}

// DeleteImageVersion handles DELETE /image-versions/:id
func (h *FileHandler) DeleteImageVersion(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.fileService.DeleteImageVersion(c.Request.Context(), authz, c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type linkImageFileRequest struct {
	VersionID string `json:"version_id" binding:"required"`
	Scale     *int   `json:"scale"`
}

// LinkImageFile handles PUT /files/:id/image-metadata
func (h *FileHandler) LinkImageFile(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	var req linkImageFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.fileService.LinkImageFile(c.Request.Context(), authz, c.Param("id"), req.VersionID, req.Scale); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// GetImageFileMetadata handles GET /files/:id/image-metadata
func (h *FileHandler) GetImageFileMetadata(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	m, err := h.fileService.GetImageFileMetadata(c.Request.Context(), authz, c.Param("id"))
	if err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_file_metadata": gin.H{
		"file_id":    m.FileID,
		"version_id": m.VersionID,
		"scale":      m.Scale,
	}})
}

// UnlinkImageFile handles DELETE /files/:id/image-metadata
func (h *FileHandler) UnlinkImageFile(c *gin.Context) {
	authz, _ := middleware.GetAuthorization(c)

	if err := h.fileService.UnlinkImageFile(c.Request.Context(), authz, c.Param("id")); err != nil {
		renderError(c, h.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
