package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/models"
)

func TestApproveRequest(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	class := seedClass(t, db, album.ID, "1-A")
	req := seedRequest(t, db, album.ID, &class.ID, 2, "Ane Berg")

	repo := NewAccessRepository(db, nil)
	access, err := repo.ApproveRequest(req.ID, class.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if access.Status != models.AccessStatusApproved || access.DisplayName != "Ane Berg" || access.ClassID != class.ID {
		t.Fatalf("unexpected access: %+v", access)
	}

	var updated models.JoinRequest
	if err := db.First(&updated, req.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if updated.Status != models.RequestStatusApproved || updated.ClassID == nil || *updated.ClassID != class.ID {
		t.Fatalf("request not transitioned: %+v", updated)
	}
}

func TestApproveRequestTwice(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	class := seedClass(t, db, album.ID, "1-A")
	req := seedRequest(t, db, album.ID, &class.ID, 2, "Ane")

	repo := NewAccessRepository(db, nil)
	if _, err := repo.ApproveRequest(req.ID, class.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := repo.ApproveRequest(req.ID, class.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending, got %v", err)
	}
}

func TestApproveLabelRequestIntoLaterClass(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	label := "4B"
	req := &models.JoinRequest{AlbumID: album.ID, ClassLabel: &label, UserID: 2, StudentName: "Ane"}
	if err := NewRequestRepository(db, nil).Create(req); err != nil {
		t.Fatalf("seed label request: %v", err)
	}

	// the admin creates the class afterwards and approves into it
	class := seedClass(t, db, album.ID, "4B")
	access, err := NewAccessRepository(db, nil).ApproveRequest(req.ID, class.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if access.ClassID != class.ID {
		t.Fatalf("access bound to wrong class: %+v", access)
	}
}

func TestApproveRejectsDuplicateMembership(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	class := seedClass(t, db, album.ID, "1-A")
	first := seedRequest(t, db, album.ID, &class.ID, 2, "Ane")
	second := seedRequest(t, db, album.ID, &class.ID, 2, "Ane again")

	repo := NewAccessRepository(db, nil)
	if _, err := repo.ApproveRequest(first.ID, class.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := repo.ApproveRequest(second.ID, class.ID); !errors.Is(err, ErrDuplicateAccess) {
		t.Fatalf("expected ErrDuplicateAccess, got %v", err)
	}
}

func TestApproveRespectsCapacityCeiling(t *testing.T) {
	limit := 1
	db := newTestDB(t)
	album := seedAlbum(t, db, &limit)
	class := seedClass(t, db, album.ID, "1-A")
	first := seedRequest(t, db, album.ID, &class.ID, 2, "Ane")
	second := seedRequest(t, db, album.ID, &class.ID, 3, "Bo")

	repo := NewAccessRepository(db, nil)
	if _, err := repo.ApproveRequest(first.ID, class.ID); err != nil {
		t.Fatalf("approve within capacity: %v", err)
	}
	if _, err := repo.ApproveRequest(second.ID, class.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// the rejected approval must leave no partial state behind
	var req models.JoinRequest
	if err := db.First(&req, second.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if !req.IsPending() {
		t.Fatalf("failed approval must leave the request pending: %+v", req)
	}

	// raising the ceiling unblocks the same request
	if err := NewAlbumRepository(db).SetCapacity(album.ID, 2); err != nil {
		t.Fatalf("raise capacity: %v", err)
	}
	if _, err := repo.ApproveRequest(second.ID, class.ID); err != nil {
		t.Fatalf("approve after raise: %v", err)
	}
}

func TestApproveIntoForeignAlbumClass(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	other := &models.Album{Name: "Other", Slug: "other", OwnerUserID: 1}
	if err := NewAlbumRepository(db).Create(other); err != nil {
		t.Fatalf("seed other album: %v", err)
	}
	foreignClass := seedClass(t, db, other.ID, "X")
	req := seedRequest(t, db, album.ID, nil, 2, "Ane")

	if _, err := NewAccessRepository(db, nil).ApproveRequest(req.ID, foreignClass.ID); !errors.Is(err, ErrClassAlbumMismatch) {
		t.Fatalf("expected ErrClassAlbumMismatch, got %v", err)
	}
}

func TestEnrollOwnerSharesInvariants(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	class := seedClass(t, db, album.ID, "1-A")

	repo := NewAccessRepository(db, nil)
	if _, err := repo.EnrollOwner(album.ID, class.ID, 1, "Owner"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := repo.EnrollOwner(album.ID, class.ID, 1, "Owner"); !errors.Is(err, ErrDuplicateAccess) {
		t.Fatalf("expected ErrDuplicateAccess, got %v", err)
	}
}

func TestUpdateProfileClearsNullableFields(t *testing.T) {
	db := newTestDB(t)
	album := seedAlbum(t, db, nil)
	class := seedClass(t, db, album.ID, "1-A")
	req := seedRequest(t, db, album.ID, &class.ID, 2, "Ane")

	repo := NewAccessRepository(db, nil)
	access, err := repo.ApproveRequest(req.ID, class.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	email := "ane@example.org"
	if err := repo.UpdateProfile(access.ID, nil, &email, nil, nil, nil, nil); err != nil {
		t.Fatalf("set email: %v", err)
	}
	reloaded, err := repo.GetByID(access.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Email == nil || *reloaded.Email != email {
		t.Fatalf("email not set: %+v", reloaded)
	}

	clear := ""
	name := "Ane Berg"
	if err := repo.UpdateProfile(access.ID, &name, &clear, nil, nil, nil, nil); err != nil {
		t.Fatalf("clear email: %v", err)
	}
	reloaded, err = repo.GetByID(access.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Email != nil {
		t.Error("empty string must clear the column")
	}
	if reloaded.DisplayName != "Ane Berg" {
		t.Errorf("display name not updated: %+v", reloaded)
	}
}

func TestDeleteAccessFreesCapacity(t *testing.T) {
	limit := 1
	db := newTestDB(t)
	album := seedAlbum(t, db, &limit)
	class := seedClass(t, db, album.ID, "1-A")
	first := seedRequest(t, db, album.ID, &class.ID, 2, "Ane")
	second := seedRequest(t, db, album.ID, &class.ID, 3, "Bo")

	repo := NewAccessRepository(db, nil)
	access, err := repo.ApproveRequest(first.ID, class.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := repo.Delete(access.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(access.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("double delete must be not-found, got %v", err)
	}
	if _, err := repo.ApproveRequest(second.ID, class.ID); err != nil {
		t.Fatalf("slot must be free after removal: %v", err)
	}
}
