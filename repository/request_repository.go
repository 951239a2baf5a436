package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/realtime"
)

// RequestRepository handles database operations for JoinRequest entities.
// Approval lives on AccessRepository because it spans both tables.
type RequestRepository struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

// NewRequestRepository creates a new instance of RequestRepository
func NewRequestRepository(db *gorm.DB, hub *realtime.Hub) *RequestRepository {
	return &RequestRepository{DB: db, Hub: hub}
}

func (r *RequestRepository) publish(albumID uint, kind string, requestID uint) {
	if r.Hub != nil {
		r.Hub.Publish(albumID, realtime.TableRequests, kind, fmt.Sprint(requestID))
	}
}

// Create records a new pending join request
func (r *RequestRepository) Create(req *models.JoinRequest) error {
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	if err := r.DB.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create join request for %s: %w", req.StudentName, err)
	}
	r.publish(req.AlbumID, realtime.KindInsert, req.ID)
	return nil
}

// GetByID retrieves a join request by its ID
func (r *RequestRepository) GetByID(id uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := r.DB.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending retrieves all pending requests of an album, oldest first
func (r *RequestRepository) ListPending(albumID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.DB.Where("album_id = ? AND status = ?", albumID, models.RequestStatusPending).
		Order("created_at ASC").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for album ID %d: %w", albumID, err)
	}
	return requests, nil
}

// ListByAlbumAndUser retrieves the user's own requests within an album,
// oldest first; callers that keep the last row per class rely on the newest
// request winning.
func (r *RequestRepository) ListByAlbumAndUser(albumID, userID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.DB.Where("album_id = ? AND user_id = ?", albumID, userID).
		Order("created_at ASC, id ASC").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for album %d user %d: %w", albumID, userID, err)
	}
	return requests, nil
}

// Reject transitions a pending request to rejected. Terminal, no side
// effects; a request that is no longer pending yields ErrRequestNotPending.
func (r *RequestRepository) Reject(requestID uint, reason *string) error {
	var albumID uint
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var req models.JoinRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if !req.IsPending() {
			return ErrRequestNotPending
		}
		albumID = req.AlbumID
		updates := map[string]interface{}{"status": models.RequestStatusRejected}
		if reason != nil && *reason != "" {
			updates["rejected_for"] = *reason
		}
		return tx.Model(&models.JoinRequest{}).Where("id = ?", requestID).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrRequestNotPending) || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to reject request ID %d: %w", requestID, err)
	}
	r.publish(albumID, realtime.KindUpdate, requestID)
	return nil
}
