package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/realtime"
)

// ClassRepository handles database operations for Class entities. sort_order
// stays a dense 0-based permutation per album: create appends at the end,
// reorder shifts the affected siblings, delete closes the gap.
type ClassRepository struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

// NewClassRepository creates a new instance of ClassRepository
func NewClassRepository(db *gorm.DB, hub *realtime.Hub) *ClassRepository {
	return &ClassRepository{DB: db, Hub: hub}
}

func (r *ClassRepository) publish(albumID uint, kind string, classID uint) {
	if r.Hub != nil {
		r.Hub.Publish(albumID, realtime.TableClasses, kind, fmt.Sprint(classID))
	}
}

// Create appends a new class at the end of the album's class list
func (r *ClassRepository) Create(class *models.Class) error {
	now := time.Now().Unix()
	class.CreatedAt = now
	class.UpdatedAt = now

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Class{}).Where("album_id = ?", class.AlbumID).Count(&count).Error; err != nil {
			return err
		}
		class.SortOrder = int(count)
		return tx.Create(class).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create class %s: %w", class.Name, err)
	}
	r.publish(class.AlbumID, realtime.KindInsert, class.ID)
	return nil
}

// ListByAlbum retrieves all classes of an album in display order
func (r *ClassRepository) ListByAlbum(albumID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.DB.Where("album_id = ?", albumID).Order("sort_order ASC").Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classes for album ID %d: %w", albumID, err)
	}
	return classes, nil
}

// GetByID retrieves a class by its ID
func (r *ClassRepository) GetByID(id uint) (*models.Class, error) {
	var class models.Class
	err := r.DB.First(&class, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get class by ID %d: %w", id, err)
	}
	return &class, nil
}

// Update updates a class's name and/or position. A position change shifts
// the siblings between the old and new slot so the ordering stays dense.
func (r *ClassRepository) Update(classID uint, name *string, sortOrder *int) (*models.Class, error) {
	var class models.Class
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&class, classID).Error; err != nil {
			return err
		}
		now := time.Now().Unix()
		updates := map[string]interface{}{"updated_at": now}
		if name != nil && *name != "" {
			updates["name"] = *name
		}
		if sortOrder != nil {
			var count int64
			if err := tx.Model(&models.Class{}).Where("album_id = ?", class.AlbumID).Count(&count).Error; err != nil {
				return err
			}
			newPos := *sortOrder
			if newPos < 0 {
				newPos = 0
			}
			if newPos > int(count)-1 {
				newPos = int(count) - 1
			}
			old := class.SortOrder
			if newPos > old {
				err := tx.Model(&models.Class{}).
					Where("album_id = ? AND sort_order > ? AND sort_order <= ?", class.AlbumID, old, newPos).
					UpdateColumn("sort_order", gorm.Expr("sort_order - 1")).Error
				if err != nil {
					return err
				}
			} else if newPos < old {
				err := tx.Model(&models.Class{}).
					Where("album_id = ? AND sort_order >= ? AND sort_order < ?", class.AlbumID, newPos, old).
					UpdateColumn("sort_order", gorm.Expr("sort_order + 1")).Error
				if err != nil {
					return err
				}
			}
			updates["sort_order"] = newPos
		}
		if err := tx.Model(&models.Class{}).Where("id = ?", classID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&class, classID).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update class ID %d: %w", classID, err)
	}
	r.publish(class.AlbumID, realtime.KindUpdate, class.ID)
	return &class, nil
}

// Delete removes a class, its memberships and its pending requests, and
// renumbers the remaining classes. Soft delete via gorm.DeletedAt.
func (r *ClassRepository) Delete(id uint) error {
	var class models.Class
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&class, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Class{}, id).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.ClassAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ? AND status = ?", id, models.RequestStatusPending).
			Delete(&models.JoinRequest{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Class{}).
			Where("album_id = ? AND sort_order > ?", class.AlbumID, class.SortOrder).
			UpdateColumn("sort_order", gorm.Expr("sort_order - 1")).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return err
		}
		return fmt.Errorf("failed to delete class ID %d: %w", id, err)
	}
	r.publish(class.AlbumID, realtime.KindDelete, class.ID)
	if r.Hub != nil {
		// dependent rows changed too; listeners re-fetch rosters and requests
		r.Hub.Publish(class.AlbumID, realtime.TableAccesses, realtime.KindDelete, "")
		r.Hub.Publish(class.AlbumID, realtime.TableRequests, realtime.KindDelete, "")
	}
	return nil
}
