package models

import "time"

// ViewState persists a user's last selected class index for an album across
// reloads. Pure convenience cache; the session controller re-clamps it against
// the live class list, so a stale value is harmless.
type ViewState struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           uint      `json:"user_id" gorm:"index:idx_view_user_album,unique"`
	AlbumID          uint      `json:"album_id" gorm:"index:idx_view_user_album,unique"`
	SelectedClassIdx int       `json:"selected_class_idx"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (ViewState) TableName() string {
	return "view_states"
}
