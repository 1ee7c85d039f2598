package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
)

// GalleryService manages galleries, their nested structure and per-user
// permission grants. Visibility rules: public galleries are viewable by
// anyone, private ones only by the owner and granted users; editing always
// needs ownership or an editor grant.
type GalleryService struct {
	store *store.Store
	cfg   *config.Config
}

func NewGalleryService(s *store.Store, cfg *config.Config) *GalleryService {
	return &GalleryService{store: s, cfg: cfg}
}

// GalleryUpdate carries the editable fields; nil means leave unchanged.
type GalleryUpdate struct {
	Name            *string
	VisibilityLevel *int
	Description     *string
	Date            *time.Time
	ParentID        *string
}

func (s *GalleryService) Create(ctx context.Context, userID, name string, visibilityLevel int, parentID *string) (*models.Gallery, error) {
	if parentID != nil {
		parent, err := s.store.GetGalleryByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, auth.ErrNotFound("Parent gallery not found")
			}
			return nil, err
		}
		if parent.UserID != userID {
			return nil, auth.ErrNotPermitted()
		}
	}
	g := &models.Gallery{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            name,
		VisibilityLevel: visibilityLevel,
		ParentID:        parentID,
	}
	if err := s.store.CreateGallery(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Get returns the gallery when the caller may view it. authz may be nil for
// anonymous requests, which only reach public galleries.
func (s *GalleryService) Get(ctx context.Context, authz *auth.Authorization, galleryID string) (*models.Gallery, error) {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("Gallery not found")
		}
		return nil, err
	}
	ok, err := s.canView(ctx, authz, g)
	if err != nil {
		return nil, err
	}
	if !ok {
		// masked so private gallery ids cannot be probed
		return nil, auth.ErrNotFound("Gallery not found")
	}
	return g, nil
}

func (s *GalleryService) ListByUser(ctx context.Context, userID string, page store.Page) ([]models.Gallery, store.PageInfo, error) {
	return s.store.GetGalleriesByUserID(ctx, userID, page)
}

// ListChildren returns the viewable child galleries of a parent the caller
// can view.
func (s *GalleryService) ListChildren(ctx context.Context, authz *auth.Authorization, parentID string) ([]models.Gallery, error) {
	if _, err := s.Get(ctx, authz, parentID); err != nil {
		return nil, err
	}
	children, err := s.store.GetChildGalleries(ctx, parentID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Gallery, 0, len(children))
	for i := range children {
		ok, err := s.canView(ctx, authz, &children[i])
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, children[i])
		}
	}
	return visible, nil
}

func (s *GalleryService) Update(ctx context.Context, authz *auth.Authorization, galleryID string, upd GalleryUpdate) (*models.Gallery, error) {
	g, err := s.requireEdit(ctx, authz, galleryID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.VisibilityLevel != nil {
		g.VisibilityLevel = *upd.VisibilityLevel
	}
	if upd.Description != nil {
		g.Description = upd.Description
	}
	if upd.Date != nil {
		g.Date = upd.Date
	}
	if upd.ParentID != nil {
		if *upd.ParentID == g.ID {
			return nil, auth.New(auth.KindNotPermitted, http.StatusUnprocessableEntity, "A gallery cannot be its own parent", false)
		}
		parent, err := s.store.GetGalleryByID(ctx, *upd.ParentID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, auth.ErrNotFound("Parent gallery not found")
			}
			return nil, err
		}
		if parent.UserID != g.UserID {
			return nil, auth.ErrNotPermitted()
		}
		g.ParentID = upd.ParentID
	}
	if err := s.store.UpdateGallery(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes a gallery; owner only.
func (s *GalleryService) Delete(ctx context.Context, authz *auth.Authorization, galleryID string) error {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Gallery not found")
		}
		return err
	}
	if authz == nil || authz.UserID() != g.UserID {
		return auth.ErrNotPermitted()
	}
	return s.store.DeleteGallery(ctx, galleryID)
}

// Grant gives or updates a user's permission on a gallery; owner only.
func (s *GalleryService) Grant(ctx context.Context, authz *auth.Authorization, galleryID, userID string, permissionLevel int) error {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Gallery not found")
		}
		return err
	}
	if authz == nil || authz.UserID() != g.UserID {
		return auth.ErrNotPermitted()
	}
	if userID == g.UserID {
		return auth.New(auth.KindNotPermitted, http.StatusUnprocessableEntity, "The owner already has full access", false)
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("User not found")
		}
		return err
	}
	return s.store.UpsertGalleryPermission(ctx, &models.GalleryPermission{
		GalleryID:       galleryID,
		UserID:          userID,
		PermissionLevel: permissionLevel,
	})
}

// Revoke removes a user's grant; owner only.
func (s *GalleryService) Revoke(ctx context.Context, authz *auth.Authorization, galleryID, userID string) error {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Gallery not found")
		}
		return err
	}
	if authz == nil || authz.UserID() != g.UserID {
		return auth.ErrNotPermitted()
	}
	if err := s.store.DeleteGalleryPermission(ctx, galleryID, userID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Permission not found")
		}
		return err
	}
	return nil
}

// Permissions lists the grants on a gallery; owner only.
func (s *GalleryService) Permissions(ctx context.Context, authz *auth.Authorization, galleryID string) ([]models.GalleryPermission, error) {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("Gallery not found")
		}
		return nil, err
	}
	if authz == nil || authz.UserID() != g.UserID {
		return nil, auth.ErrNotPermitted()
	}
	return s.store.ListGalleryPermissions(ctx, galleryID)
}

func (s *GalleryService) canView(ctx context.Context, authz *auth.Authorization, g *models.Gallery) (bool, error) {
	if g.IsPublic() {
		return true, nil
	}
	if authz == nil || authz.User == nil {
		return false, nil
	}
	if authz.UserID() == g.UserID {
		return true, nil
	}
	_, err := s.store.GetGalleryPermission(ctx, g.ID, authz.UserID())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *GalleryService) canEdit(ctx context.Context, authz *auth.Authorization, g *models.Gallery) (bool, error) {
	if authz == nil || authz.User == nil {
		return false, nil
	}
	if authz.UserID() == g.UserID {
		return true, nil
	}
	p, err := s.store.GetGalleryPermission(ctx, g.ID, authz.UserID())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.PermissionLevel >= models.PermissionEditor, nil
}

// requireEdit loads the gallery and enforces edit access, masking private
// galleries the caller cannot even view.
func (s *GalleryService) requireEdit(ctx context.Context, authz *auth.Authorization, galleryID string) (*models.Gallery, error) {
	g, err := s.store.GetGalleryByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("Gallery not found")
		}
		return nil, err
	}
	ok, err := s.canEdit(ctx, authz, g)
	if err != nil {
		return nil, err
	}
	if ok {
		return g, nil
	}
	visible, err := s.canView(ctx, authz, g)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, auth.ErrNotFound("Gallery not found")
	}
	return nil, auth.ErrNotPermitted()
}
