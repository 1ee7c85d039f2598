package models

import (
	"time"
)

// Gallery visibility levels.
const (
	VisibilityPublic  = 1
	VisibilityPrivate = 2
)

// Gallery permission levels.
const (
	PermissionViewer = 1
	PermissionEditor = 2
)

// Gallery is a hierarchical folder of files owned by a user.
type Gallery struct {
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"not null;index"`
	Name            string `gorm:"not null"`
	VisibilityLevel int    `gorm:"not null"`
	ParentID        *string
	Description     *string
	Date            *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *Gallery) IsPublic() bool {
	return g.VisibilityLevel == VisibilityPublic
}

// GalleryPermission grants a user viewer or editor access to a gallery.
type GalleryPermission struct {
	GalleryID       string `gorm:"primaryKey"`
	UserID          string `gorm:"primaryKey"`
	PermissionLevel int    `gorm:"not null"`
}

// File is a stored object's metadata; storage layout is out of scope.
type File struct {
	ID        string `gorm:"primaryKey"`
	GalleryID string `gorm:"not null;index"`
	Stem      string `gorm:"not null"`
	Suffix    *string
	Size      *int64
}

// ImageVersion is one edit of an image; the original version has a nil Version.
type ImageVersion struct {
	ID           string `gorm:"primaryKey"`
	GalleryID    string `gorm:"not null;index"`
	BaseName     *string
	ParentID     *string
	Version      *string
	Taken        *time.Time
	Description  *string
	AspectRatio  *float64
	AverageColor *string
}

// ImageFileMetadata links a file to the image version it renders, with an
// optional scale percentage.
type ImageFileMetadata struct {
	FileID    string `gorm:"primaryKey"`
	VersionID string `gorm:"not null;index"`
	Scale     *int
}
