package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/model"
)

// fakePageRepo is a map-backed PageRepository with the same semantics as
// the SQLite one: unconditional Update, idempotent Delete.
type fakePageRepo struct {
	pages  map[int64]model.Page
	nextID int64
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{pages: map[int64]model.Page{}, nextID: 1}
}

func (f *fakePageRepo) Create(_ context.Context, page *model.Page) error {
	page.ID = f.nextID
	f.nextID++
	f.pages[page.ID] = *page
	return nil
}

func (f *fakePageRepo) GetByID(_ context.Context, id int64) (*model.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, apperror.NotFound("page", fmt.Sprint(id))
	}
	return &p, nil
}

func (f *fakePageRepo) List(_ context.Context) ([]model.Page, error) {
	out := make([]model.Page, 0, len(f.pages))
	for _, p := range f.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakePageRepo) Update(_ context.Context, page *model.Page) error {
	if _, ok := f.pages[page.ID]; !ok {
		return nil // unconditional UPDATE, zero rows matched
	}
	f.pages[page.ID] = *page
	return nil
}

func (f *fakePageRepo) Delete(_ context.Context, id int64) error {
	delete(f.pages, id)
	return nil
}

// fakeIndex records titles by id and answers substring queries. Close
// enough to bleve for exercising the service's consistency logic.
type fakeIndex struct {
	titles    map[int64]string
	failIndex bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{titles: map[int64]string{}}
}

func (f *fakeIndex) IndexPage(id int64, title string) error {
	if f.failIndex {
		return errors.New("index unavailable")
	}
	f.titles[id] = title
	return nil
}

func (f *fakeIndex) DeletePage(id int64) error {
	delete(f.titles, id)
	return nil
}

func (f *fakeIndex) Search(query string) ([]int64, error) {
	var ids []int64
	for id, title := range f.titles {
		if strings.Contains(strings.ToLower(title), strings.ToLower(query)) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeIndex) ReindexAll(pages map[int64]string) error {
	f.titles = map[int64]string{}
	for id, title := range pages {
		f.titles[id] = title
	}
	return nil
}

func newTestPageService(t *testing.T) (*PageService, *fakePageRepo, *fakeIndex) {
	t.Helper()
	repo := newFakePageRepo()
	index := newFakeIndex()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPageService(repo, index, logger), repo, index
}

func TestPageCreate_IndexesTitle(t *testing.T) {
	svc, repo, index := newTestPageService(t)

	page, err := svc.Create(context.Background(), "  Budget 2024  ", "numbers", "content", "2024-03-14")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if page.Title != "Budget 2024" {
		t.Errorf("Title = %q, want trimmed %q", page.Title, "Budget 2024")
	}
	if _, ok := repo.pages[page.ID]; !ok {
		t.Error("page not stored")
	}
	// The index write is synchronous — the entry exists before Create returns.
	if index.titles[page.ID] != "Budget 2024" {
		t.Errorf("index entry = %q, want %q", index.titles[page.ID], "Budget 2024")
	}
}

func TestPageCreate_EmptyTitle(t *testing.T) {
	svc, _, _ := newTestPageService(t)

	_, err := svc.Create(context.Background(), "   ", "", "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestPageCreate_TitleTooLong(t *testing.T) {
	svc, _, _ := newTestPageService(t)

	_, err := svc.Create(context.Background(), strings.Repeat("x", MaxTitleLength+1), "", "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestPageCreate_IndexFailureDoesNotLoseThePage(t *testing.T) {
	svc, repo, index := newTestPageService(t)
	index.failIndex = true

	// The database is the source of truth; a broken index must not turn a
	// successful save into an error page.
	page, err := svc.Create(context.Background(), "groceries", "", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v, want nil despite index failure", err)
	}
	if _, ok := repo.pages[page.ID]; !ok {
		t.Error("page not stored")
	}
}

func TestPageUpdate_RefreshesIndex(t *testing.T) {
	svc, _, index := newTestPageService(t)
	page, err := svc.Create(context.Background(), "before", "", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Update(context.Background(), page.ID, "after", "d", "c", "2025-01-01"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if index.titles[page.ID] != "after" {
		t.Errorf("index entry = %q, want %q", index.titles[page.ID], "after")
	}
}

func TestPageUpdate_MissingIDIsNoOp(t *testing.T) {
	svc, _, index := newTestPageService(t)

	if err := svc.Update(context.Background(), 42, "ghost", "", "", ""); err != nil {
		t.Errorf("Update() on missing id error = %v, want nil", err)
	}
	// Nothing stored, so nothing indexed either.
	if _, ok := index.titles[42]; ok {
		t.Error("missing page got an index entry")
	}
}

func TestPageDelete_RemovesIndexEntry(t *testing.T) {
	svc, _, index := newTestPageService(t)
	page, err := svc.Create(context.Background(), "doomed", "", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), page.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := index.titles[page.ID]; ok {
		t.Error("index entry outlived the page")
	}

	// Second delete of the same id succeeds quietly.
	if err := svc.Delete(context.Background(), page.ID); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestPageSearch_ResolvesHits(t *testing.T) {
	svc, _, _ := newTestPageService(t)
	if _, err := svc.Create(context.Background(), "january budget", "", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "travel notes", "", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pages, err := svc.Search(context.Background(), "budget")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(pages) != 1 || pages[0].Title != "january budget" {
		t.Errorf("Search() = %+v, want one hit titled %q", pages, "january budget")
	}
}

func TestPageSearch_SkipsDanglingHits(t *testing.T) {
	svc, repo, _ := newTestPageService(t)
	page, err := svc.Create(context.Background(), "orphan entry", "", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Simulate a row that vanished while its index entry stayed behind.
	delete(repo.pages, page.ID)

	pages, err := svc.Search(context.Background(), "orphan")
	if err != nil {
		t.Fatalf("Search() error = %v, want dangling hit skipped", err)
	}
	if len(pages) != 0 {
		t.Errorf("Search() = %+v, want no results", pages)
	}
}

func TestPageReindex(t *testing.T) {
	svc, repo, index := newTestPageService(t)
	if _, err := svc.Create(context.Background(), "groceries", "", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Poison the index with an entry for a page that doesn't exist.
	index.titles[99] = "ghost"

	if err := svc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}

	if _, ok := index.titles[99]; ok {
		t.Error("stale entry survived Reindex()")
	}
	if len(index.titles) != len(repo.pages) {
		t.Errorf("index has %d entries, table has %d rows", len(index.titles), len(repo.pages))
	}
}
