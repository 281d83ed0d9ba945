package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/model"
	"github.com/miguelr/journal-cms/internal/repository"
)

// compile-time check that *DB implements repository.PageRepository
var _ repository.PageRepository = (*DB)(nil)

// Create inserts a new page and fills in the auto-assigned ID and
// timestamps on the caller's struct.
//
// Unlike users, pages use SQLite's AUTOINCREMENT — LastInsertId hands the
// new rowid straight back after the INSERT.
func (db *DB) Create(ctx context.Context, page *model.Page) error {
	now := time.Now()
	page.CreatedAt = now
	page.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO pages (title, description, content, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		page.Title,
		page.Description,
		page.Content,
		page.Date,
		page.CreatedAt,
		page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating page: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new page id: %w", err)
	}
	page.ID = id

	return nil
}

// GetByID retrieves a single page by primary key.
// Returns apperror.ErrNotFound when the page doesn't exist.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Page, error) {
	var p model.Page

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, content, date, created_at, updated_at
		 FROM pages
		 WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Content,
		&p.Date,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("page", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting page %d: %w", id, err)
	}

	return &p, nil
}

// List returns every page, newest first. The dashboard shows the whole
// journal — there is deliberately no pagination.
func (db *DB) List(ctx context.Context) ([]model.Page, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, content, date, created_at, updated_at
		 FROM pages
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Content, &p.Date,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning page row: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pages: %w", err)
	}

	return pages, nil
}

// Update overwrites title, description, content, and date in place.
//
// NOTE: this is deliberately an unconditional UPDATE with no existence
// check. Zero matched rows is a silent no-op, not an error — the edit form
// fires a POST and redirects without caring whether the row was still
// there. Callers that need to know fetch the page afterwards.
func (db *DB) Update(ctx context.Context, page *model.Page) error {
	page.UpdatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE pages
		 SET title = ?, description = ?, content = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		page.Title,
		page.Description,
		page.Content,
		page.Date,
		page.UpdatedAt,
		page.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating page %d: %w", page.ID, err)
	}

	return nil
}

// Delete removes a page. Deleting an id that doesn't exist is a no-op —
// the delete link must stay idempotent (double-click, stale tab).
func (db *DB) Delete(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM pages WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: deleting page %d: %w", id, err)
	}
	return nil
}
