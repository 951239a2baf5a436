package models

import "gorm.io/gorm"

// Class represents one class (homeroom) inside a yearbook album.
// sort_order is dense and 0-based within an album; the repository keeps it
// a permutation of [0, N) across create/reorder/delete.
type Class struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID   uint           `gorm:"not null;index" json:"album_id"`
	Name      string         `gorm:"not null" json:"name"`
	SortOrder int            `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt int64          `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt int64          `gorm:"not null" json:"updated_at"` // Unix timestamp
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Class) TableName() string {
	return "classes"
}
