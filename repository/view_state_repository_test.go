package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestViewStateSaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormViewStateRepository(db)

	if _, err := repo.GetSelectedClass(7, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for unseen user, got %v", err)
	}

	if err := repo.SaveSelectedClass(7, 1, 2); err != nil {
		t.Fatalf("save: %v", err)
	}
	idx, err := repo.GetSelectedClass(7, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx != 2 {
		t.Errorf("idx = %d, want 2", idx)
	}
}

func TestViewStateUpsertReplacesPrevious(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormViewStateRepository(db)

	if err := repo.SaveSelectedClass(7, 1, 2); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSelectedClass(7, 1, 0); err != nil {
		t.Fatalf("resave: %v", err)
	}

	idx, err := repo.GetSelectedClass(7, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx != 0 {
		t.Errorf("idx = %d, want 0 after upsert", idx)
	}

	var count int64
	db.Table("view_states").Count(&count)
	if count != 1 {
		t.Errorf("view_states rows = %d, want 1", count)
	}
}

func TestViewStateIsPerUserAndAlbum(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormViewStateRepository(db)

	if err := repo.SaveSelectedClass(7, 1, 3); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSelectedClass(7, 2, 1); err != nil {
		t.Fatalf("save other album: %v", err)
	}
	if err := repo.SaveSelectedClass(8, 1, 0); err != nil {
		t.Fatalf("save other user: %v", err)
	}

	idx, err := repo.GetSelectedClass(7, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx != 3 {
		t.Errorf("idx = %d, want 3 for user 7 album 1", idx)
	}
}
