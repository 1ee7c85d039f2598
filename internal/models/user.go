package models

import (
	"time"
)

type User struct {
	ID          string  `gorm:"primaryKey"`
	Email       string  `gorm:"uniqueIndex;not null"`
	PhoneNumber *string `gorm:"uniqueIndex"`
	// Username presence marks the user as public
	Username     *string `gorm:"uniqueIndex"`
	PasswordHash *string // magic-link/Google-only users have no password
	RoleID       int     `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPublic returns true if the user has claimed a username.
func (u *User) IsPublic() bool {
	return u.Username != nil
}
