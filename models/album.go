package models

import "gorm.io/gorm"

// Album represents a shared yearbook album in the database using GORM.
// It corresponds to the 'albums' table.
type Album struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	Slug            string         `gorm:"not null;unique" json:"slug"`
	Description     *string        `gorm:"" json:"description,omitempty"` // Nullable
	OwnerUserID     uint           `gorm:"not null;index" json:"owner_user_id"`
	CoverImagePath  *string        `gorm:"" json:"cover_image_path,omitempty"` // Nullable
	SchoolName      *string        `gorm:"" json:"school_name,omitempty"`      // Nullable
	GraduationYear  *int           `gorm:"" json:"graduation_year,omitempty"`  // Nullable
	LimitCount      *int           `gorm:"" json:"limit_count,omitempty"`      // Nullable, capacity ceiling on approved accesses
	MemberSortOrder string         `gorm:"not null;default:'name_nat'" json:"member_sort_order"`
	CreatedAt       int64          `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt       int64          `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"` // For soft deletes
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// IsUnbounded reports whether the album has no capacity ceiling set.
func (a *Album) IsUnbounded() bool {
	return a.LimitCount == nil
}
