package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/realtime"
)

// AccessRepository handles database operations for ClassAccess entities and
// owns the approval transaction. The two roster invariants — at most one
// approved access per (album, user) and approved_count <= limit_count — are
// enforced here and nowhere else.
type AccessRepository struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

// NewAccessRepository creates a new instance of AccessRepository
func NewAccessRepository(db *gorm.DB, hub *realtime.Hub) *AccessRepository {
	return &AccessRepository{DB: db, Hub: hub}
}

func (r *AccessRepository) publish(albumID uint, table, kind string, rowID uint) {
	if r.Hub != nil {
		r.Hub.Publish(albumID, table, kind, fmt.Sprint(rowID))
	}
}

// checkRosterInvariants verifies that adding one approved access for userID
// keeps both invariants intact. Runs inside the caller's transaction.
func checkRosterInvariants(tx *gorm.DB, albumID, userID uint) error {
	var existing int64
	err := tx.Model(&models.ClassAccess{}).
		Where("album_id = ? AND user_id = ? AND status = ?", albumID, userID, models.AccessStatusApproved).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return ErrDuplicateAccess
	}

	var album models.Album
	if err := tx.First(&album, albumID).Error; err != nil {
		return err
	}
	if album.LimitCount != nil {
		var approved int64
		err := tx.Model(&models.ClassAccess{}).
			Where("album_id = ? AND status = ?", albumID, models.AccessStatusApproved).
			Count(&approved).Error
		if err != nil {
			return err
		}
		if approved >= int64(*album.LimitCount) {
			return ErrCapacityExceeded
		}
	}
	return nil
}

// ApproveRequest transitions a pending join request into an approved
// ClassAccess in one transaction. A request that is no longer pending yields
// ErrRequestNotPending (stale-state conflict for the caller).
func (r *AccessRepository) ApproveRequest(requestID, classID uint) (*models.ClassAccess, error) {
	var access *models.ClassAccess
	var albumID uint
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var req models.JoinRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if !req.IsPending() {
			return ErrRequestNotPending
		}
		var class models.Class
		if err := tx.First(&class, classID).Error; err != nil {
			return err
		}
		if class.AlbumID != req.AlbumID {
			return ErrClassAlbumMismatch
		}
		if err := checkRosterInvariants(tx, req.AlbumID, req.UserID); err != nil {
			return err
		}
		albumID = req.AlbumID
		access = &models.ClassAccess{
			AlbumID:     req.AlbumID,
			ClassID:     classID,
			UserID:      req.UserID,
			Status:      models.AccessStatusApproved,
			DisplayName: req.StudentName,
			Email:       req.Email,
		}
		if err := tx.Create(access).Error; err != nil {
			return err
		}
		return tx.Model(&models.JoinRequest{}).Where("id = ?", requestID).
			Updates(map[string]interface{}{"status": models.RequestStatusApproved, "class_id": classID}).Error
	})
	if err != nil {
		if isBusinessError(err) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to approve request ID %d: %w", requestID, err)
	}
	r.publish(albumID, realtime.TableAccesses, realtime.KindInsert, access.ID)
	r.publish(albumID, realtime.TableRequests, realtime.KindUpdate, requestID)
	return access, nil
}

// EnrollOwner creates an approved access directly, the album owner's
// shortcut past the join-request flow. Same invariants as an approval.
func (r *AccessRepository) EnrollOwner(albumID, classID, userID uint, displayName string) (*models.ClassAccess, error) {
	var access *models.ClassAccess
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.First(&class, classID).Error; err != nil {
			return err
		}
		if class.AlbumID != albumID {
			return ErrClassAlbumMismatch
		}
		if err := checkRosterInvariants(tx, albumID, userID); err != nil {
			return err
		}
		access = &models.ClassAccess{
			AlbumID:     albumID,
			ClassID:     classID,
			UserID:      userID,
			Status:      models.AccessStatusApproved,
			DisplayName: displayName,
		}
		return tx.Create(access).Error
	})
	if err != nil {
		if isBusinessError(err) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to enroll user %d into class %d: %w", userID, classID, err)
	}
	r.publish(albumID, realtime.TableAccesses, realtime.KindInsert, access.ID)
	return access, nil
}

// UpdateProfile patches profile fields of an access. A nil pointer leaves a
// field unchanged, an empty string clears it by writing NULL.
func (r *AccessRepository) UpdateProfile(accessID uint, displayName, email, dateOfBirth, socialHandle, message, videoPath *string) error {
	updates := map[string]interface{}{}
	if displayName != nil && *displayName != "" {
		updates["display_name"] = *displayName
	}
	setNullable(updates, "email", email)
	setNullable(updates, "date_of_birth", dateOfBirth)
	setNullable(updates, "social_handle", socialHandle)
	setNullable(updates, "message", message)
	setNullable(updates, "video_path", videoPath)
	if len(updates) == 0 {
		return nil
	}

	var access models.ClassAccess
	if err := r.DB.First(&access, accessID).Error; err != nil {
		return err
	}
	result := r.DB.Model(&models.ClassAccess{}).Where("id = ?", accessID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update access ID %d: %w", accessID, result.Error)
	}
	r.publish(access.AlbumID, realtime.TableAccesses, realtime.KindUpdate, accessID)
	return nil
}

// Delete removes a membership (soft delete)
func (r *AccessRepository) Delete(accessID uint) error {
	var access models.ClassAccess
	if err := r.DB.First(&access, accessID).Error; err != nil {
		return err
	}
	result := r.DB.Delete(&models.ClassAccess{}, accessID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete access ID %d: %w", accessID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publish(access.AlbumID, realtime.TableAccesses, realtime.KindDelete, accessID)
	return nil
}

// GetByID retrieves an access by its ID
func (r *AccessRepository) GetByID(id uint) (*models.ClassAccess, error) {
	var access models.ClassAccess
	err := r.DB.First(&access, id).Error
	if err != nil {
		return nil, err
	}
	return &access, nil
}

// ListByAlbumAndUser retrieves the user's accesses within an album
func (r *AccessRepository) ListByAlbumAndUser(albumID, userID uint) ([]models.ClassAccess, error) {
	var accesses []models.ClassAccess
	err := r.DB.Where("album_id = ? AND user_id = ?", albumID, userID).Find(&accesses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accesses for album %d user %d: %w", albumID, userID, err)
	}
	return accesses, nil
}

// CountApproved returns the number of approved accesses in an album
func (r *AccessRepository) CountApproved(albumID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.ClassAccess{}).
		Where("album_id = ? AND status = ?", albumID, models.AccessStatusApproved).
		Count(&count).Error
	return count, err
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrRequestNotPending) ||
		errors.Is(err, ErrDuplicateAccess) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrClassAlbumMismatch)
}

func setNullable(updates map[string]interface{}, column string, value *string) {
	if value == nil {
		return
	}
	if *value == "" { // allow clearing the field
		updates[column] = gorm.Expr("NULL")
	} else {
		updates[column] = *value
	}
}
