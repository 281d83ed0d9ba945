// Package repository declares the storage interfaces the service layer
// depends on. The concrete SQLite implementation lives in the sqlite
// subpackage; services only ever see these interfaces, so tests can swap
// in in-memory fakes without touching a database.
package repository

import (
	"context"

	"github.com/miguelr/journal-cms/internal/model"
)

// UserRepository stores journal accounts.
//
// CreateUser must map uniqueness violations (name, username, email) to a
// validation-style error rather than leaking a raw driver error — the
// signup form renders those straight back to the user.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// PageRepository stores journal pages.
//
// Update intentionally performs an unconditional UPDATE: a missing id is a
// silent no-op, not an error. Delete is likewise idempotent. Both match the
// dashboard's fire-and-redirect form flow.
type PageRepository interface {
	Create(ctx context.Context, page *model.Page) error
	GetByID(ctx context.Context, id int64) (*model.Page, error)
	List(ctx context.Context) ([]model.Page, error)
	Update(ctx context.Context, page *model.Page) error
	Delete(ctx context.Context, id int64) error
}

// SessionRepository stores server-side login sessions.
//
// DeleteSession is idempotent so that logout can never fail because a
// session was already gone. DeleteExpiredSessions is housekeeping, run at
// startup.
//
// The user and session methods carry entity prefixes because the SQLite
// implementation backs all three interfaces with one *DB type; pages are
// the primary entity and keep the plain names.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByID(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
