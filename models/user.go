package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an album owner, admin, member or global admin.
type User struct {
	ID                uint     `json:"id" gorm:"primaryKey"`
	Username          string   `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash      string   `json:"-" gorm:"not null"`                         // "-" means don't include in JSON responses
	GlobalPermissions []string `json:"global_permissions" gorm:"serializer:json"` // Use JSON serializer
	// AlbumPermissionsMap holds per-album permission strings, loaded from the
	// user_album_permissions table by the repository. Key is the album ID as a string.
	AlbumPermissionsMap map[string][]string `json:"album_permissions_map" gorm:"-"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// UserAlbumPermission defines the permissions a user has for a specific album.
type UserAlbumPermission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index:idx_user_album,unique"`
	User        User      `json:"-" gorm:"foreignKey:UserID"`
	AlbumID     uint      `json:"album_id" gorm:"index:idx_user_album,unique"`
	Permissions []string  `json:"permissions" gorm:"serializer:json"` // Use JSON serializer
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetPassword hashes the given password and sets it on the user model.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the user's hashed password.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// HasGlobalPermission checks if the user has a specific global permission.
func (u *User) HasGlobalPermission(permission string) bool {
	for _, p := range u.GlobalPermissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasAlbumPermission checks if the user has a specific permission for a given album.
// Assumes u.AlbumPermissionsMap was populated by the repository.
func (u *User) HasAlbumPermission(albumID uint, permission string) bool {
	for _, p := range u.AlbumPermissionsMap[fmt.Sprint(albumID)] {
		if p == permission {
			return true
		}
	}
	return false
}
