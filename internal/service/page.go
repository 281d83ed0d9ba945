package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/model"
	"github.com/miguelr/journal-cms/internal/repository"
)

// MaxTitleLength caps the title; description and content are free-form
// large text and deliberately uncapped (journal entries can be long).
const MaxTitleLength = 1000

// PageIndex is the slice of the search index the page service needs.
// internal/search.Index satisfies it; tests use a map-backed fake.
type PageIndex interface {
	IndexPage(id int64, title string) error
	DeletePage(id int64) error
	Search(query string) ([]int64, error)
	ReindexAll(pages map[int64]string) error
}

// PageService owns the journal's CRUD flow and keeps the search index
// consistent with the page table.
//
// CONSISTENCY MODEL:
// Every mutation writes the database first, then the index, synchronously
// in the request goroutine — a search fired by the very next request sees
// the change. If the index write fails AFTER a successful database write,
// the error is logged but not returned: the store is the source of truth,
// the user's content is safe, and the startup rebuild heals the index.
type PageService struct {
	pages  repository.PageRepository
	index  PageIndex
	logger *slog.Logger
}

// NewPageService creates a PageService.
func NewPageService(pages repository.PageRepository, index PageIndex, logger *slog.Logger) *PageService {
	return &PageService{
		pages:  pages,
		index:  index,
		logger: logger,
	}
}

// List returns every page, newest first, for the dashboard.
func (s *PageService) List(ctx context.Context) ([]model.Page, error) {
	pages, err := s.pages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pages, nil
}

// Create inserts a new page and indexes its title.
func (s *PageService) Create(ctx context.Context, title, description, content, date string) (*model.Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "page title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("page title must be %d characters or less", MaxTitleLength))
	}

	page := &model.Page{
		Title:       title,
		Description: strings.TrimSpace(description),
		Content:     content,
		Date:        strings.TrimSpace(date),
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}

	if err := s.index.IndexPage(page.ID, page.Title); err != nil {
		s.logger.Error("page created but not indexed",
			slog.Int64("id", page.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("page created",
		slog.Int64("id", page.ID),
		slog.String("title", page.Title),
	)

	return page, nil
}

// Get retrieves one page. Returns apperror.ErrNotFound when it's missing.
func (s *PageService) Get(ctx context.Context, id int64) (*model.Page, error) {
	return s.pages.GetByID(ctx, id)
}

// Update overwrites all four mutable fields of a page.
//
// Updating a missing id is a SILENT NO-OP — the repository runs an
// unconditional UPDATE and reports nothing when zero rows match. The
// fetch-back below both refreshes the index with the stored row and tells
// us whether the row existed at all; when it didn't, there is nothing to
// index and nothing to report.
func (s *PageService) Update(ctx context.Context, id int64, title, description, content, date string) error {
	title = strings.TrimSpace(title)
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("page title must be %d characters or less", MaxTitleLength))
	}

	page := &model.Page{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(description),
		Content:     content,
		Date:        strings.TrimSpace(date),
	}
	if err := s.pages.Update(ctx, page); err != nil {
		return fmt.Errorf("updating page %d: %w", id, err)
	}

	stored, err := s.pages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("update on missing page ignored", slog.Int64("id", id))
			return nil
		}
		return fmt.Errorf("re-reading page %d after update: %w", id, err)
	}

	if err := s.index.IndexPage(stored.ID, stored.Title); err != nil {
		s.logger.Error("page updated but not re-indexed",
			slog.Int64("id", stored.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("page updated", slog.Int64("id", id), slog.String("title", stored.Title))
	return nil
}

// Delete removes a page and its index entry. Deleting a missing id is a
// no-op, and a second delete of the same id succeeds quietly.
func (s *PageService) Delete(ctx context.Context, id int64) error {
	if err := s.pages.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting page %d: %w", id, err)
	}

	// The index entry must never outlive the row.
	if err := s.index.DeletePage(id); err != nil {
		s.logger.Error("page deleted but index entry remains",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("page deleted", slog.Int64("id", id))
	return nil
}

// Search runs a title query and resolves the hits back to full pages, in
// relevance order. Hits whose page vanished between the index read and the
// table read are skipped, not errors — the index is only best-effort.
func (s *PageService) Search(ctx context.Context, query string) ([]model.Page, error) {
	ids, err := s.index.Search(query)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	pages := make([]model.Page, 0, len(ids))
	for _, id := range ids {
		page, err := s.pages.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				s.logger.Warn("search hit for missing page", slog.Int64("id", id))
				continue
			}
			return nil, fmt.Errorf("loading search hit %d: %w", id, err)
		}
		pages = append(pages, *page)
	}

	return pages, nil
}

// Reindex rebuilds the search index from the page table. Run at startup so
// the index always reflects the table the process actually booted with.
func (s *PageService) Reindex(ctx context.Context) error {
	pages, err := s.pages.List(ctx)
	if err != nil {
		return fmt.Errorf("reindexing: listing pages: %w", err)
	}

	titles := make(map[int64]string, len(pages))
	for _, p := range pages {
		titles[p.ID] = p.Title
	}

	if err := s.index.ReindexAll(titles); err != nil {
		return fmt.Errorf("reindexing: %w", err)
	}
	return nil
}
