package repository

import (
	"github.com/camden-git/yearbooksync/models"
)

// AlbumRepositoryInterface defines the methods for album data operations
type AlbumRepositoryInterface interface {
	Create(album *models.Album) error
	ListByOwner(ownerUserID uint) ([]models.Album, error)
	GetByID(id uint) (*models.Album, error)
	GetBySlug(slug string) (*models.Album, error)
	Update(albumID uint, name string, description *string, schoolName *string, graduationYear *int) error
	SetCapacity(albumID uint, limit int) error
	UpdateCoverPath(albumID uint, coverPath *string) error
	UpdateMemberSortOrder(albumID uint, sortOrder string) error
	Delete(id uint) error
}

// ClassRepositoryInterface defines the methods for class data operations
type ClassRepositoryInterface interface {
	Create(class *models.Class) error
	ListByAlbum(albumID uint) ([]models.Class, error)
	GetByID(id uint) (*models.Class, error)
	Update(classID uint, name *string, sortOrder *int) (*models.Class, error)
	Delete(id uint) error
}

// AccessRepositoryInterface defines the methods for membership data operations
type AccessRepositoryInterface interface {
	ApproveRequest(requestID, classID uint) (*models.ClassAccess, error)
	EnrollOwner(albumID, classID, userID uint, displayName string) (*models.ClassAccess, error)
	UpdateProfile(accessID uint, displayName, email, dateOfBirth, socialHandle, message, videoPath *string) error
	Delete(accessID uint) error
	GetByID(id uint) (*models.ClassAccess, error)
	ListByAlbumAndUser(albumID, userID uint) ([]models.ClassAccess, error)
	CountApproved(albumID uint) (int64, error)
}

// RequestRepositoryInterface defines the methods for join request data operations
type RequestRepositoryInterface interface {
	Create(req *models.JoinRequest) error
	GetByID(id uint) (*models.JoinRequest, error)
	ListPending(albumID uint) ([]models.JoinRequest, error)
	ListByAlbumAndUser(albumID, userID uint) ([]models.JoinRequest, error)
	Reject(requestID uint, reason *string) error
}

// InviteRepository defines the methods for invite token data operations
type InviteRepository interface {
	CreateOrRotate(albumID, createdByUserID uint, ttlDays int) (*models.InviteToken, error)
	GetByToken(token string) (*models.InviteToken, error)
	GetValidByToken(token string) (*models.InviteToken, error)
	GetByAlbum(albumID uint) (*models.InviteToken, error)
	Delete(albumID uint) error
}

// UserRepository defines the methods for user data operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	ListAll() ([]models.User, error)

	// direct album-specific permission management for a user
	SetUserAlbumPermissions(userID, albumID uint, permissions []string) error
	GetUserAlbumPermission(userID, albumID uint) (*models.UserAlbumPermission, error)
	DeleteUserAlbumPermission(userID, albumID uint) error
}
