package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/models"
)

// AlbumRepository handles database operations for Album entities
type AlbumRepository struct {
	DB *gorm.DB
}

// NewAlbumRepository creates a new instance of AlbumRepository
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{DB: db}
}

// Create creates a new album record in the database
func (r *AlbumRepository) Create(album *models.Album) error {
	now := time.Now().Unix()
	if album.CreatedAt == 0 {
		album.CreatedAt = now
	}
	if album.UpdatedAt == 0 {
		album.UpdatedAt = now
	}
	if album.MemberSortOrder == "" {
		album.MemberSortOrder = database.DefaultMemberSortOrder
	}

	err := r.DB.Create(album).Error
	if err != nil {
		return fmt.Errorf("failed to create album %s: %w", album.Name, err)
	}
	return nil
}

// ListByOwner retrieves all albums owned by a user, ordered by name
func (r *AlbumRepository) ListByOwner(ownerUserID uint) ([]models.Album, error) {
	var albums []models.Album
	err := r.DB.Where("owner_user_id = ?", ownerUserID).Order("name ASC").Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

// GetByID retrieves an album by its ID
func (r *AlbumRepository) GetByID(id uint) (*models.Album, error) {
	var album models.Album
	err := r.DB.First(&album, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by ID %d: %w", id, err)
	}
	return &album, nil
}

// GetBySlug retrieves an album by its slug
func (r *AlbumRepository) GetBySlug(slug string) (*models.Album, error) {
	var album models.Album
	err := r.DB.Where("slug = ?", slug).First(&album).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by slug %s: %w", slug, err)
	}
	return &album, nil
}

// Update updates an existing album's name, description, school and year
// other fields are updated by specific methods
func (r *AlbumRepository) Update(albumID uint, name string, description *string, schoolName *string, graduationYear *int) error {
	now := time.Now().Unix()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	if name != "" {
		updates["name"] = name
	}
	if description != nil {
		updates["description"] = *description
	}
	if schoolName != nil {
		updates["school_name"] = *schoolName
	}
	if graduationYear != nil {
		updates["graduation_year"] = *graduationYear
	}

	// if only updated_at is present, no actual fields were changed
	if len(updates) == 1 {
		return nil
	}

	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update album ID %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		r.DB.Model(&models.Album{}).Where("id = ?", albumID).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// SetCapacity raises the album's ceiling on approved accesses. A limit below
// the current approved count is rejected; the ceiling can never cut into
// existing memberships.
func (r *AlbumRepository) SetCapacity(albumID uint, limit int) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var album models.Album
		if err := tx.First(&album, albumID).Error; err != nil {
			return err
		}
		var approved int64
		err := tx.Model(&models.ClassAccess{}).
			Where("album_id = ? AND status = ?", albumID, models.AccessStatusApproved).
			Count(&approved).Error
		if err != nil {
			return err
		}
		if int64(limit) < approved {
			return ErrCapacityBelowCount
		}
		return tx.Model(&models.Album{}).Where("id = ?", albumID).Updates(map[string]interface{}{
			"limit_count": limit,
			"updated_at":  time.Now().Unix(),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrCapacityBelowCount) || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to set capacity for album ID %d: %w", albumID, err)
	}
	return nil
}

// UpdateCoverPath updates the cover image path for an album
func (r *AlbumRepository) UpdateCoverPath(albumID uint, coverPath *string) error {
	now := time.Now().Unix()
	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).Updates(map[string]interface{}{
		"cover_image_path": coverPath,
		"updated_at":       now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update cover path for album ID %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateMemberSortOrder updates the roster sort order for an album
func (r *AlbumRepository) UpdateMemberSortOrder(albumID uint, sortOrder string) error {
	if !database.IsValidMemberSortOrder(sortOrder) {
		return fmt.Errorf("invalid member sort order: %s", sortOrder)
	}
	now := time.Now().Unix()
	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).Updates(map[string]interface{}{
		"member_sort_order": sortOrder,
		"updated_at":        now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update member sort order for album ID %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an album by its ID
// this will perform a soft delete because models.Album has gorm.DeletedAt
func (r *AlbumRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Album{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete album ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
