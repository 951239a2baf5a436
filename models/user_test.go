package models

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	u := &User{Username: "casey"}
	if err := u.SetPassword("hunter22"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "hunter22" {
		t.Fatal("password stored in plain text")
	}
	if !u.CheckPassword("hunter22") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("hunter23") {
		t.Error("wrong password accepted")
	}
}

func TestHasGlobalPermission(t *testing.T) {
	u := &User{GlobalPermissions: []string{"user.manage"}}
	if !u.HasGlobalPermission("user.manage") {
		t.Error("expected user.manage to be granted")
	}
	if u.HasGlobalPermission("album.manage.settings") {
		t.Error("unexpected grant for album.manage.settings")
	}
}

func TestHasAlbumPermission(t *testing.T) {
	u := &User{AlbumPermissionsMap: map[string][]string{
		"3": {"album.manage.requests", "album.view"},
	}}
	if !u.HasAlbumPermission(3, "album.manage.requests") {
		t.Error("expected grant on album 3")
	}
	if u.HasAlbumPermission(4, "album.manage.requests") {
		t.Error("unexpected grant on album 4")
	}

	var empty User
	if empty.HasAlbumPermission(3, "album.view") {
		t.Error("nil permissions map should grant nothing")
	}
}
