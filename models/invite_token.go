package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteToken is a stateless bearer credential for self-service join flows,
// scoped to a single album. Rotating creates a new token and removes the
// previous one (implicit revocation), so at most one row exists per album.
type InviteToken struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AlbumID         uint      `json:"album_id" gorm:"uniqueIndex;not null"`
	Token           string    `json:"token" gorm:"uniqueIndex;not null"`
	ExpiresAt       time.Time `json:"expires_at" gorm:"index"`
	CreatedByUserID uint      `json:"created_by_user_id"` // ID of the admin user who created the token
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate generates a unique token if not provided.
func (it *InviteToken) BeforeCreate(tx *gorm.DB) (err error) {
	if it.Token == "" {
		it.Token = uuid.New().String()
	}
	return
}

// IsValid checks if the invite token can still be used.
func (it *InviteToken) IsValid() bool {
	return time.Now().Before(it.ExpiresAt)
}
