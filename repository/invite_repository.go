package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
)

type GormInviteRepository struct {
	db *gorm.DB
}

func NewGormInviteRepository(db *gorm.DB) *GormInviteRepository {
	return &GormInviteRepository{db: db}
}

// CreateOrRotate issues a fresh invite token for the album, removing any
// previous one in the same transaction (implicit revocation).
func (r *GormInviteRepository) CreateOrRotate(albumID, createdByUserID uint, ttlDays int) (*models.InviteToken, error) {
	token := &models.InviteToken{
		AlbumID:         albumID,
		ExpiresAt:       time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour),
		CreatedByUserID: createdByUserID,
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&models.InviteToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rotate invite token for album ID %d: %w", albumID, err)
	}
	return token, nil
}

// GetByToken retrieves an invite token by its opaque value
func (r *GormInviteRepository) GetByToken(token string) (*models.InviteToken, error) {
	var inviteToken models.InviteToken
	err := r.db.Where("token = ?", token).First(&inviteToken).Error
	if err != nil {
		return nil, err
	}
	return &inviteToken, nil
}

// GetValidByToken retrieves an invite token and verifies it hasn't expired
func (r *GormInviteRepository) GetValidByToken(token string) (*models.InviteToken, error) {
	inviteToken, err := r.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if !inviteToken.IsValid() {
		return nil, ErrInviteExpired
	}
	return inviteToken, nil
}

// GetByAlbum retrieves the album's current invite token, if any
func (r *GormInviteRepository) GetByAlbum(albumID uint) (*models.InviteToken, error) {
	var inviteToken models.InviteToken
	err := r.db.Where("album_id = ?", albumID).First(&inviteToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get invite token for album ID %d: %w", albumID, err)
	}
	return &inviteToken, nil
}

// Delete revokes the album's invite token without issuing a new one
func (r *GormInviteRepository) Delete(albumID uint) error {
	return r.db.Where("album_id = ?", albumID).Delete(&models.InviteToken{}).Error
}
