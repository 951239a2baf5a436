package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/yearbooksync/models"
)

// GormViewStateRepository persists the last selected class per (user, album).
// Implements engine.ViewStore.
type GormViewStateRepository struct {
	db *gorm.DB
}

func NewGormViewStateRepository(db *gorm.DB) *GormViewStateRepository {
	return &GormViewStateRepository{db: db}
}

func (r *GormViewStateRepository) GetSelectedClass(userID, albumID uint) (int, error) {
	var state models.ViewState
	err := r.db.Where("user_id = ? AND album_id = ?", userID, albumID).First(&state).Error
	if err != nil {
		return 0, err
	}
	return state.SelectedClassIdx, nil
}

func (r *GormViewStateRepository) SaveSelectedClass(userID, albumID uint, idx int) error {
	state := models.ViewState{
		UserID:           userID,
		AlbumID:          albumID,
		SelectedClassIdx: idx,
		UpdatedAt:        time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "album_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_class_idx", "updated_at"}),
	}).Create(&state).Error
}
