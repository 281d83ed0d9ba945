package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/model"
)

// newTestDB opens an in-memory database — fast, isolated, destroyed when
// the connection closes. t.Cleanup handles the close even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPage(t *testing.T, db *DB, title string) *model.Page {
	t.Helper()
	page := &model.Page{
		Title:       title,
		Description: "a description",
		Content:     "some content",
		Date:        "2024-01-01",
	}
	if err := db.Create(context.Background(), page); err != nil {
		t.Fatalf("failed to create test page: %v", err)
	}
	return page
}

func TestPageCreate_AssignsSequentialIDs(t *testing.T) {
	db := newTestDB(t)

	first := createTestPage(t, db, "first")
	second := createTestPage(t, db, "second")

	if first.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if second.ID <= first.ID {
		t.Errorf("IDs not increasing: first=%d second=%d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestPageCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	original := &model.Page{
		Title:       "Budget 2024",
		Description: "yearly numbers",
		Content:     "groceries: too much",
		Date:        "2024-03-14",
	}
	if err := db.Create(context.Background(), original); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	// All four user-visible fields survive the trip.
	if found.Title != original.Title {
		t.Errorf("Title = %q, want %q", found.Title, original.Title)
	}
	if found.Description != original.Description {
		t.Errorf("Description = %q, want %q", found.Description, original.Description)
	}
	if found.Content != original.Content {
		t.Errorf("Content = %q, want %q", found.Content, original.Content)
	}
	if found.Date != original.Date {
		t.Errorf("Date = %q, want %q", found.Date, original.Date)
	}
}

func TestPageGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 9999)
	if err == nil {
		t.Fatal("GetByID() returned no error for a missing page")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestPageList_Empty(t *testing.T) {
	db := newTestDB(t)

	pages, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("List() returned %d pages, want 0", len(pages))
	}
}

func TestPageList_NewestFirst(t *testing.T) {
	db := newTestDB(t)

	createTestPage(t, db, "older")
	newest := createTestPage(t, db, "newer")

	pages, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("List() returned %d pages, want 2", len(pages))
	}
	if pages[0].ID != newest.ID {
		t.Errorf("first page = %d, want newest %d", pages[0].ID, newest.ID)
	}
}

func TestPageUpdate_ReplacesAllFields(t *testing.T) {
	db := newTestDB(t)
	page := createTestPage(t, db, "before")

	page.Title = "after"
	page.Description = "new description"
	page.Content = "new content"
	page.Date = "2025-01-01"
	if err := db.Update(context.Background(), page); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), page.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "after" || found.Description != "new description" ||
		found.Content != "new content" || found.Date != "2025-01-01" {
		t.Errorf("Update() did not replace all fields: %+v", found)
	}
}

func TestPageUpdate_MissingIDIsNoOp(t *testing.T) {
	db := newTestDB(t)

	// No row 42 exists; the unconditional UPDATE must succeed quietly.
	err := db.Update(context.Background(), &model.Page{
		ID:    42,
		Title: "ghost",
	})
	if err != nil {
		t.Errorf("Update() on missing id error = %v, want nil", err)
	}
}

func TestPageDelete_Idempotent(t *testing.T) {
	db := newTestDB(t)
	page := createTestPage(t, db, "doomed")

	if err := db.Delete(context.Background(), page.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Second delete of the same id must not error.
	if err := db.Delete(context.Background(), page.ID); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}

	if _, err := db.GetByID(context.Background(), page.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("page still present after delete: err = %v", err)
	}
}
