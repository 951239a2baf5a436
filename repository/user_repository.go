package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/yearbooksync/models"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *GormUserRepository) loadAlbumPermissions(user *models.User) error {
	var userAlbumPerms []models.UserAlbumPermission
	err := r.db.Where("user_id = ?", user.ID).Find(&userAlbumPerms).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load user album permissions: %w", err)
	}
	user.AlbumPermissionsMap = make(map[string][]string)
	for _, uap := range userAlbumPerms {
		user.AlbumPermissionsMap[fmt.Sprint(uap.AlbumID)] = uap.Permissions
	}
	return nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	if err := r.loadAlbumPermissions(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if err := r.loadAlbumPermissions(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *GormUserRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

func (r *GormUserRepository) ListAll() ([]models.User, error) {
	var users []models.User
	err := r.db.Find(&users).Error
	return users, err
}

// SetUserAlbumPermissions upserts the user's permission list for one album
func (r *GormUserRepository) SetUserAlbumPermissions(userID, albumID uint, permissions []string) error {
	uap := models.UserAlbumPermission{
		UserID:      userID,
		AlbumID:     albumID,
		Permissions: permissions,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "album_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "updated_at"}),
	}).Create(&uap).Error
}

// GetUserAlbumPermission returns the user's permission row for one album
func (r *GormUserRepository) GetUserAlbumPermission(userID, albumID uint) (*models.UserAlbumPermission, error) {
	var uap models.UserAlbumPermission
	err := r.db.Where("user_id = ? AND album_id = ?", userID, albumID).First(&uap).Error
	if err != nil {
		return nil, err
	}
	return &uap, nil
}

// DeleteUserAlbumPermission removes the user's permission row for one album
func (r *GormUserRepository) DeleteUserAlbumPermission(userID, albumID uint) error {
	return r.db.Where("user_id = ? AND album_id = ?", userID, albumID).Delete(&models.UserAlbumPermission{}).Error
}
