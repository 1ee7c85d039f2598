package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
)

// FileService manages file and image version metadata within galleries.
// Access follows the containing gallery: viewers read, editors write.
type FileService struct {
	store     *store.Store
	galleries *GalleryService
}

func NewFileService(s *store.Store, galleries *GalleryService) *FileService {
	return &FileService{store: s, galleries: galleries}
}

func (s *FileService) CreateFile(ctx context.Context, authz *auth.Authorization, galleryID, stem string, suffix *string, size *int64) (*models.File, error) {
	if _, err := s.galleries.requireEdit(ctx, authz, galleryID); err != nil {
		return nil, err
	}
	f := &models.File{
		ID:        uuid.New().String(),
		GalleryID: galleryID,
		Stem:      stem,
		Suffix:    suffix,
		Size:      size,
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FileService) GetFile(ctx context.Context, authz *auth.Authorization, fileID string) (*models.File, error) {
	f, err := s.store.GetFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("File not found")
		}
		return nil, err
	}
	if _, err := s.galleries.Get(ctx, authz, f.GalleryID); err != nil {
		return nil, auth.ErrNotFound("File not found")
	}
	return f, nil
}

func (s *FileService) ListFiles(ctx context.Context, authz *auth.Authorization, galleryID string) ([]models.File, error) {
	if _, err := s.galleries.Get(ctx, authz, galleryID); err != nil {
		return nil, err
	}
	return s.store.GetFilesByGalleryID(ctx, galleryID)
}

func (s *FileService) DeleteFile(ctx context.Context, authz *auth.Authorization, fileID string) error {
	f, err := s.GetFile(ctx, authz, fileID)
	if err != nil {
		return err
	}
	if _, err := s.galleries.requireEdit(ctx, authz, f.GalleryID); err != nil {
		return err
	}
	return s.store.DeleteFile(ctx, f.ID)
}

// ImageVersionUpdate carries the editable fields; nil means leave unchanged.
type ImageVersionUpdate struct {
	BaseName     *string
	Version      *string
	Taken        *time.Time
	Description  *string
	AspectRatio  *float64
	AverageColor *string
}

func (s *FileService) CreateImageVersion(ctx context.Context, authz *auth.Authorization, galleryID string, baseName, parentID *string) (*models.ImageVersion, error) {
	if _, err := s.galleries.requireEdit(ctx, authz, galleryID); err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.store.GetImageVersionByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, auth.ErrNotFound("Parent image version not found")
			}
			return nil, err
		}
		if parent.GalleryID != galleryID {
			return nil, auth.ErrNotPermitted()
		}
	}
	v := &models.ImageVersion{
		ID:        uuid.New().String(),
		GalleryID: galleryID,
		BaseName:  baseName,
		ParentID:  parentID,
	}
	if err := s.store.CreateImageVersion(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *FileService) GetImageVersion(ctx context.Context, authz *auth.Authorization, versionID string) (*models.ImageVersion, error) {
	v, err := s.store.GetImageVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("Image version not found")
		}
		return nil, err
	}
	if _, err := s.galleries.Get(ctx, authz, v.GalleryID); err != nil {
		return nil, auth.ErrNotFound("Image version not found")
	}
	return v, nil
}

func (s *FileService) ListImageVersions(ctx context.Context, authz *auth.Authorization, galleryID string) ([]models.ImageVersion, error) {
	if _, err := s.galleries.Get(ctx, authz, galleryID); err != nil {
		return nil, err
	}
	return s.store.GetImageVersionsByGalleryID(ctx, galleryID)
}

func (s *FileService) UpdateImageVersion(ctx context.Context, authz *auth.Authorization, versionID string, upd ImageVersionUpdate) (*models.ImageVersion, error) {
	v, err := s.GetImageVersion(ctx, authz, versionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.galleries.requireEdit(ctx, authz, v.GalleryID); err != nil {
		return nil, err
	}
	if upd.BaseName != nil {
		v.BaseName = upd.BaseName
	}
	if upd.Version != nil {
		v.Version = upd.Version
	}
	if upd.Taken != nil {
		v.Taken = upd.Taken
	}
	if upd.Description != nil {
		v.Description = upd.Description
	}
	if upd.AspectRatio != nil {
		v.AspectRatio = upd.AspectRatio
	}
	if upd.AverageColor != nil {
		v.AverageColor = upd.AverageColor
	}
	if err := s.store.UpdateImageVersion(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *FileService) DeleteImageVersion(ctx context.Context, authz *auth.Authorization, versionID string) error {
	v, err := s.GetImageVersion(ctx, authz, versionID)
	if err != nil {
		return err
	}
	if _, err := s.galleries.requireEdit(ctx, authz, v.GalleryID); err != nil {
		return err
	}
	return s.store.DeleteImageVersion(ctx, v.ID)
}

// LinkImageFile attaches a file to an image version, recording its render
// scale. Both must live in the same gallery.
func (s *FileService) LinkImageFile(ctx context.Context, authz *auth.Authorization, fileID, versionID string, scale *int) error {
	f, err := s.GetFile(ctx, authz, fileID)
	if err != nil {
		return err
	}
	v, err := s.GetImageVersion(ctx, authz, versionID)
	if err != nil {
		return err
	}
	if f.GalleryID != v.GalleryID {
		return auth.ErrNotPermitted()
	}
	if _, err := s.galleries.requireEdit(ctx, authz, f.GalleryID); err != nil {
		return err
	}
	return s.store.SetImageFileMetadata(ctx, &models.ImageFileMetadata{
		FileID:    fileID,
		VersionID: versionID,
		Scale:     scale,
	})
}

func (s *FileService) GetImageFileMetadata(ctx context.Context, authz *auth.Authorization, fileID string) (*models.ImageFileMetadata, error) {
	if _, err := s.GetFile(ctx, authz, fileID); err != nil {
		return nil, err
	}
	m, err := s.store.GetImageFileMetadata(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("Image file metadata not found")
		}
		return nil, err
	}
	return m, nil
}

func (s *FileService) UnlinkImageFile(ctx context.Context, authz *auth.Authorization, fileID string) error {
	f, err := s.GetFile(ctx, authz, fileID)
	if err != nil {
		return err
	}
	if _, err := s.galleries.requireEdit(ctx, authz, f.GalleryID); err != nil {
		return err
	}
	return s.store.DeleteImageFileMetadata(ctx, f.ID)
}
