package repository

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedAlbum(t *testing.T, db *gorm.DB, limit *int) *models.Album {
	t.Helper()
	album := &models.Album{Name: "Class of 2027", Slug: "class-of-2027", OwnerUserID: 1, LimitCount: limit}
	if err := NewAlbumRepository(db).Create(album); err != nil {
		t.Fatalf("seed album: %v", err)
	}
	return album
}

func seedClass(t *testing.T, db *gorm.DB, albumID uint, name string) *models.Class {
	t.Helper()
	class := &models.Class{AlbumID: albumID, Name: name}
	if err := NewClassRepository(db, nil).Create(class); err != nil {
		t.Fatalf("seed class %s: %v", name, err)
	}
	return class
}

func seedRequest(t *testing.T, db *gorm.DB, albumID uint, classID *uint, userID uint, name string) *models.JoinRequest {
	t.Helper()
	req := &models.JoinRequest{AlbumID: albumID, ClassID: classID, UserID: userID, StudentName: name}
	if err := NewRequestRepository(db, nil).Create(req); err != nil {
		t.Fatalf("seed request for %s: %v", name, err)
	}
	return req
}
