package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jameskabbes/gallery-api/internal/models"
)

// Gallery operations

func (s *Store) CreateGallery(ctx context.Context, g *models.Gallery) error {
	return s.db.WithContext(ctx).Create(g).Error
}

func (s *Store) GetGalleryByID(ctx context.Context, id string) (*models.Gallery, error) {
	var g models.Gallery
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &g, nil
}

func (s *Store) GetGalleriesByUserID(ctx context.Context, userID string, page Page) ([]models.Gallery, PageInfo, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Gallery{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, PageInfo{}, err
	}

	var galleries []models.Gallery
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&galleries).Error
	if err != nil {
		return nil, PageInfo{}, err
	}
	return galleries, pageInfo(total, page), nil
}

func (s *Store) GetChildGalleries(ctx context.Context, parentID string) ([]models.Gallery, error) {
	var galleries []models.Gallery
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Find(&galleries).Error
	return galleries, err
}

func (s *Store) UpdateGallery(ctx context.Context, g *models.Gallery) error {
	return s.db.WithContext(ctx).Save(g).Error
}

func (s *Store) DeleteGallery(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Gallery{}).Error
}

// Gallery permission operations

func (s *Store) GetGalleryPermission(ctx context.Context, galleryID, userID string) (*models.GalleryPermission, error) {
	var p models.GalleryPermission
	err := s.db.WithContext(ctx).
		Where("gallery_id = ? AND user_id = ?", galleryID, userID).
		First(&p).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

func (s *Store) ListGalleryPermissions(ctx context.Context, galleryID string) ([]models.GalleryPermission, error) {
	var perms []models.GalleryPermission
	err := s.db.WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Find(&perms).Error
	return perms, err
}

// UpsertGalleryPermission creates or replaces the grant for (gallery, user).
func (s *Store) UpsertGalleryPermission(ctx context.Context, p *models.GalleryPermission) error {
	var existing models.GalleryPermission
	err := s.db.WithContext(ctx).
		Where("gallery_id = ? AND user_id = ?", p.GalleryID, p.UserID).
		First(&existing).Error
	if err == nil {
		return s.db.WithContext(ctx).
			Model(&models.GalleryPermission{}).
			Where("gallery_id = ? AND user_id = ?", p.GalleryID, p.UserID).
			Update("permission_level", p.PermissionLevel).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) DeleteGalleryPermission(ctx context.Context, galleryID, userID string) error {
	res := s.db.WithContext(ctx).
		Where("gallery_id = ? AND user_id = ?", galleryID, userID).
		Delete(&models.GalleryPermission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// File operations

func (s *Store) CreateFile(ctx context.Context, f *models.File) error {
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *Store) GetFileByID(ctx context.Context, id string) (*models.File, error) {
	var f models.File
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &f, nil
}

func (s *Store) GetFilesByGalleryID(ctx context.Context, galleryID string) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Order("stem ASC").
		Find(&files).Error
	return files, err
}

func (s *Store) UpdateFile(ctx context.Context, f *models.File) error {
	return s.db.WithContext(ctx).Save(f).Error
}

func (s *Store) DeleteFile(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.File{}).Error
}

// Image version operations

func (s *Store) CreateImageVersion(ctx context.Context, v *models.ImageVersion) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *Store) GetImageVersionByID(ctx context.Context, id string) (*models.ImageVersion, error) {
	var v models.ImageVersion
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &v, nil
}

func (s *Store) GetImageVersionsByGalleryID(ctx context.Context, galleryID string) ([]models.ImageVersion, error) {
	var versions []models.ImageVersion
	err := s.db.WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Find(&versions).Error
	return versions, err
}

func (s *Store) UpdateImageVersion(ctx context.Context, v *models.ImageVersion) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *Store) DeleteImageVersion(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ImageVersion{}).Error
}

// Image file metadata operations

func (s *Store) SetImageFileMetadata(ctx context.Context, m *models.ImageFileMetadata) error {
	var existing models.ImageFileMetadata
	err := s.db.WithContext(ctx).
		Where("file_id = ?", m.FileID).
		First(&existing).Error
	if err == nil {
		return s.db.WithContext(ctx).Save(m).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetImageFileMetadata(ctx context.Context, fileID string) (*models.ImageFileMetadata, error) {
	var m models.ImageFileMetadata
	if err := s.db.WithContext(ctx).Where("file_id = ?", fileID).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

func (s *Store) DeleteImageFileMetadata(ctx context.Context, fileID string) error {
	return s.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.ImageFileMetadata{}).Error
}
