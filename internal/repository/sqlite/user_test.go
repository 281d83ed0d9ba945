package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/model"
)

func createTestUser(t *testing.T, db *DB, name, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$notarealhashbutitdoesnotmatterhere",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "Ann Smith", "ann1", "a@x.com")

	if user.ID == "" {
		t.Error("CreateUser() did not assign an ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set CreatedAt")
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "Ann Smith", "ann1", "a@x.com")

	found, err := db.GetUserByUsername(context.Background(), "ann1")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", found.Email, "a@x.com")
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "Ann Smith", "ann1", "a@x.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name:         "Other Ann",
		Username:     "ann1", // taken
		Email:        "other@x.com",
		PasswordHash: "hash",
	})
	if err == nil {
		t.Fatal("CreateUser() accepted a duplicate username")
	}

	// The violation surfaces as a field-tagged validation error, not a
	// raw driver error — signup renders it on the form.
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	var ae *apperror.AppError
	if !errors.As(err, &ae) || ae.Field != "username" {
		t.Errorf("error field = %v, want username", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "Ann Smith", "ann1", "a@x.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name:         "Other Ann",
		Username:     "ann2",
		Email:        "a@x.com", // taken
		PasswordHash: "hash",
	})
	if err == nil {
		t.Fatal("CreateUser() accepted a duplicate email")
	}

	var ae *apperror.AppError
	if !errors.As(err, &ae) || ae.Field != "email" {
		t.Errorf("error field = %v, want email", err)
	}
}
