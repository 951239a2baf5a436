package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/engine"
)

func newTestEngineStore(t *testing.T) (*EngineStore, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw handle: %v", err)
	}
	store := NewEngineStore(
		NewAlbumRepository(db),
		NewClassRepository(db, nil),
		NewAccessRepository(db, nil),
		NewRequestRepository(db, nil),
		NewGormInviteRepository(db),
		sqlDB,
	)
	return store, db
}

func TestGetMyAccessAndRequestsCoversEveryClass(t *testing.T) {
	store, db := newTestEngineStore(t)
	album := seedAlbum(t, db, nil)
	a := seedClass(t, db, album.ID, "1-A")
	b := seedClass(t, db, album.ID, "1-B")
	req := seedRequest(t, db, album.ID, &a.ID, 2, "Ane")
	if _, err := NewAccessRepository(db, nil).ApproveRequest(req.ID, a.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	access, requests, err := store.GetMyAccessAndRequests(context.Background(), album.ID, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	aKey := strconv.FormatUint(uint64(a.ID), 10)
	bKey := strconv.FormatUint(uint64(b.ID), 10)
	for _, key := range []string{aKey, bKey} {
		if _, ok := access[key]; !ok {
			t.Fatalf("access map must carry an entry for class %s: %v", key, access)
		}
		if _, ok := requests[key]; !ok {
			t.Fatalf("request map must carry an entry for class %s: %v", key, requests)
		}
	}
	if access[aKey] == nil || access[aKey].Status != engine.StatusApproved {
		t.Fatalf("approved access missing: %+v", access[aKey])
	}
	if access[bKey] != nil {
		t.Fatalf("class without membership must map to nil, got %+v", access[bKey])
	}
	if requests[aKey] == nil || requests[aKey].Status != engine.StatusApproved {
		t.Fatalf("own request must reflect its final status: %+v", requests[aKey])
	}
}

func TestGetMyAccessAndRequestsLabelKey(t *testing.T) {
	store, db := newTestEngineStore(t)
	album := seedAlbum(t, db, nil)

	req := engine.JoinRequest{UserID: 2, StudentName: "Ane", ClassLabel: "4B"}
	if _, err := store.SubmitJoinRequest(context.Background(), album.ID, req); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, requests, err := store.GetMyAccessAndRequests(context.Background(), album.ID, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if requests["label:4B"] == nil {
		t.Fatalf("label-only request must be label-keyed: %v", requests)
	}
}

func TestLocalIDsResolveToNotFound(t *testing.T) {
	store, _ := newTestEngineStore(t)
	ctx := context.Background()

	name := "x"
	if _, err := store.UpdateClass(ctx, engine.NewLocalID(), engine.ClassPatch{Name: &name}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for a placeholder id, got %v", err)
	}
	if err := store.RemoveMember(ctx, "not-a-number"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for garbage id, got %v", err)
	}
}

func TestEngineStoreHonorsContext(t *testing.T) {
	store, db := newTestEngineStore(t)
	album := seedAlbum(t, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListClasses(ctx, album.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestListAllMembersUsesAlbumSortOrder(t *testing.T) {
	store, db := newTestEngineStore(t)
	album := seedAlbum(t, db, nil)
	a := seedClass(t, db, album.ID, "1-A")
	accessRepo := NewAccessRepository(db, nil)
	for i, name := range []string{"Student 10", "Student 2"} {
		req := seedRequest(t, db, album.ID, &a.ID, uint(10+i), name)
		if _, err := accessRepo.ApproveRequest(req.ID, a.ID); err != nil {
			t.Fatalf("approve %s: %v", name, err)
		}
	}

	members, err := store.ListAllMembers(context.Background(), album.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	// the default sort is natural name order: 2 before 10
	if members[0].DisplayName != "Student 2" || members[1].DisplayName != "Student 10" {
		t.Fatalf("natural order not applied: %+v", members)
	}
}

func TestGetMyAccessAndRequestsLatestRequestWins(t *testing.T) {
	store, db := newTestEngineStore(t)
	album := seedAlbum(t, db, nil)
	a := seedClass(t, db, album.ID, "1-A")

	first := seedRequest(t, db, album.ID, &a.ID, 2, "Ane")
	if err := NewRequestRepository(db, nil).Reject(first.ID, nil); err != nil {
		t.Fatalf("reject: %v", err)
	}
	second := seedRequest(t, db, album.ID, &a.ID, 2, "Ane")

	_, requests, err := store.GetMyAccessAndRequests(context.Background(), album.ID, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	aKey := strconv.FormatUint(uint64(a.ID), 10)
	got := requests[aKey]
	if got == nil {
		t.Fatal("expected a request entry for the class")
	}
	wantID := strconv.FormatUint(uint64(second.ID), 10)
	if got.ID != wantID || got.Status != engine.StatusPending {
		t.Fatalf("newest request must win: got %+v, want id %s pending", got, wantID)
	}
}
