package repository

import (
	"testing"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/permissions"
)

func seedUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	if err := user.SetPassword("secret"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func TestAlbumPermissionGrantRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	user := seedUser(t, repo, "alex")

	grants := []string{permissions.AlbumManageRequests, permissions.AlbumManageMembers}
	if err := repo.SetUserAlbumPermissions(user.ID, 1, grants); err != nil {
		t.Fatalf("set permissions: %v", err)
	}

	loaded, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !loaded.HasAlbumPermission(1, permissions.AlbumManageRequests) {
		t.Error("expected manage.requests grant on album 1")
	}
	if loaded.HasAlbumPermission(2, permissions.AlbumManageRequests) {
		t.Error("grant leaked to album 2")
	}
}

func TestAlbumPermissionGrantUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	user := seedUser(t, repo, "alex")

	if err := repo.SetUserAlbumPermissions(user.ID, 1, []string{permissions.AlbumManageRequests}); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if err := repo.SetUserAlbumPermissions(user.ID, 1, []string{permissions.AlbumView}); err != nil {
		t.Fatalf("replace permissions: %v", err)
	}

	grant, err := repo.GetUserAlbumPermission(user.ID, 1)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if len(grant.Permissions) != 1 || grant.Permissions[0] != permissions.AlbumView {
		t.Errorf("permissions = %v, want only %s", grant.Permissions, permissions.AlbumView)
	}

	var count int64
	db.Model(&models.UserAlbumPermission{}).Count(&count)
	if count != 1 {
		t.Errorf("grant rows = %d, want 1", count)
	}
}

func TestAlbumPermissionGrantDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	user := seedUser(t, repo, "alex")

	if err := repo.SetUserAlbumPermissions(user.ID, 1, []string{permissions.AlbumView}); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if err := repo.DeleteUserAlbumPermission(user.ID, 1); err != nil {
		t.Fatalf("delete grant: %v", err)
	}

	loaded, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if loaded.HasAlbumPermission(1, permissions.AlbumView) {
		t.Error("deleted grant still effective")
	}
}

func TestGetByUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	seedUser(t, repo, "alex")

	loaded, err := repo.GetByUsername("alex")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if !loaded.CheckPassword("secret") {
		t.Error("stored password hash does not verify")
	}
	if _, err := repo.GetByUsername("nobody"); err == nil {
		t.Error("expected error for unknown username")
	}
}
