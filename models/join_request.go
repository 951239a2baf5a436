package models

import (
	"time"

	"gorm.io/gorm"
)

// Join request status constants
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved" // terminal; a ClassAccess was created
	RequestStatusRejected = "rejected" // terminal; no side effect
)

// JoinRequest is a self-service request to be enrolled into an album.
// ClassID may be nil when the requester only supplied a free-text class label
// (the class didn't exist yet at request time); an admin assigns the
// destination class at approval time.
type JoinRequest struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AlbumID     uint           `gorm:"not null;index" json:"album_id"`
	ClassID     *uint          `gorm:"index" json:"class_id,omitempty"`
	ClassLabel  *string        `json:"class_label,omitempty"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	StudentName string         `gorm:"not null" json:"student_name"`
	Email       *string        `json:"email,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Status      string         `gorm:"not null;default:pending;index" json:"status"`
	RejectedFor *string        `json:"rejected_for,omitempty"` // optional reason given on rejection
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (JoinRequest) TableName() string {
	return "join_requests"
}

// IsPending reports whether the request can still be approved or rejected.
func (jr *JoinRequest) IsPending() bool {
	return jr.Status == RequestStatusPending
}
