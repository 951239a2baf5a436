package models

import (
	"time"

	"gorm.io/gorm"
)

// Access status constants
const (
	AccessStatusApproved = "approved" // created by request approval or owner self-enrollment
)

// ClassAccess represents a user's approved membership in a class.
// Invariant (enforced by AccessRepository, not the schema): at most one
// approved ClassAccess per (album, user).
type ClassAccess struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AlbumID      uint           `gorm:"not null;index:idx_access_album_user" json:"album_id"`
	ClassID      uint           `gorm:"not null;index" json:"class_id"`
	UserID       uint           `gorm:"not null;index:idx_access_album_user" json:"user_id"`
	Status       string         `gorm:"not null;default:approved" json:"status"`
	DisplayName  string         `gorm:"not null" json:"display_name"`
	Email        *string        `json:"email,omitempty"`
	DateOfBirth  *string        `json:"date_of_birth,omitempty"` // ISO date, free-form on input
	SocialHandle *string        `json:"social_handle,omitempty"`
	Message      *string        `json:"message,omitempty"` // free-text yearbook message
	PhotoPath    *string        `json:"photo_path,omitempty"`
	VideoPath    *string        `json:"video_path,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (ClassAccess) TableName() string {
	return "class_accesses"
}
