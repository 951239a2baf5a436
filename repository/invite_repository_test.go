package repository

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
)

func TestCreateOrRotateReplacesToken(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	repo := NewGormInviteRepository(db)

	first, err := repo.CreateOrRotate(album.ID, 1, 14)
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}
	if first.Token == "" {
		t.Fatal("token not generated")
	}

	second, err := repo.CreateOrRotate(album.ID, 1, 14)
	if err != nil {
		t.Fatalf("second rotate: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("rotation must issue a fresh token")
	}

	// the old token is revoked, only the new one resolves
	if _, err := repo.GetByToken(first.Token); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("old token must be revoked, got %v", err)
	}
	current, err := repo.GetByAlbum(album.ID)
	if err != nil {
		t.Fatalf("get by album: %v", err)
	}
	if current.Token != second.Token {
		t.Fatalf("album must resolve to the latest token")
	}
}

func TestGetValidByTokenExpiry(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	repo := NewGormInviteRepository(db)

	token, err := repo.CreateOrRotate(album.ID, 1, 14)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := repo.GetValidByToken(token.Token); err != nil {
		t.Fatalf("fresh token must validate: %v", err)
	}

	expired := time.Now().Add(-time.Hour)
	if err := db.Model(&models.InviteToken{}).Where("id = ?", token.ID).
		Update("expires_at", expired).Error; err != nil {
		t.Fatalf("expire token: %v", err)
	}
	if _, err := repo.GetValidByToken(token.Token); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
}

func TestDeleteRevokesWithoutReplacement(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	repo := NewGormInviteRepository(db)

	if _, err := repo.CreateOrRotate(album.ID, 1, 14); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := repo.Delete(album.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByAlbum(album.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found after revocation, got %v", err)
	}
}
