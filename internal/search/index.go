// Package search maintains the full-text index over page titles.
//
// The index is a DERIVED structure, never a source of truth: it lives in
// its own on-disk directory next to the database, is rebuilt from the pages
// table at every startup, and is updated synchronously after each write.
// Losing it costs nothing but a rebuild.
//
// WHY BLEVE?
// bleve is the standard pure-Go full-text engine: on-disk index directory,
// tokenization, case-insensitive matching, and relevance ranking out of the
// box. The alternative — LIKE '%q%' over the pages table — gives no ranking
// and no tokenization, and stops being cheap the moment content is searched
// too.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// searchLimit caps how many hits one query returns. The journal has no
// pagination anywhere, so this is effectively "all of them".
const searchLimit = 1000

// pageDoc is the indexed projection of a page. Only the title is
// searchable — matching the dashboard's search box, which has always been
// a title search.
type pageDoc struct {
	Title string `json:"title"`
}

// Index wraps a bleve index with the journal's sync and query operations.
type Index struct {
	idx    bleve.Index
	logger *slog.Logger
}

// Open opens the index directory at path, creating it on first run.
// An empty path opens a memory-only index — the search-side analogue of
// sqlite's ":memory:", used by tests.
func Open(path string, logger *slog.Logger) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)

	if path == "" {
		idx, err = bleve.NewMemOnly(buildMapping())
	} else {
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, buildMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("search: opening index at %q: %w", path, err)
	}

	return &Index{idx: idx, logger: logger}, nil
}

// buildMapping declares how documents are analyzed. The default standard
// analyzer lowercases and tokenizes, which is exactly the "case-insensitive
// keyword match" the search box promises.
func buildMapping() mapping.IndexMapping {
	titleField := bleve.NewTextFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", titleField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Close releases the index files. Call on shutdown, after the HTTP server
// has drained.
func (ix *Index) Close() error {
	return ix.idx.Close()
}

// docID turns a page ID into the index's document key.
func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// IndexPage adds or replaces the index entry for a page. Called
// synchronously after every create and update, so a search issued by the
// redirect that follows already sees the new title.
func (ix *Index) IndexPage(id int64, title string) error {
	if err := ix.idx.Index(docID(id), pageDoc{Title: title}); err != nil {
		return fmt.Errorf("search: indexing page %d: %w", id, err)
	}
	return nil
}

// DeletePage removes a page's entry. Invariant: an index entry must never
// outlive its row, so page deletion always calls this in the same request.
func (ix *Index) DeletePage(id int64) error {
	if err := ix.idx.Delete(docID(id)); err != nil {
		return fmt.Errorf("search: deleting page %d from index: %w", id, err)
	}
	return nil
}

// ReindexAll rebuilds the index to exactly match the given set of pages:
// every page is (re)indexed and any entry whose page no longer exists is
// dropped. Run once at startup against the full table.
func (ix *Index) ReindexAll(pages map[int64]string) error {
	batch := ix.idx.NewBatch()

	// Entries for rows that vanished while the index wasn't looking
	// (crash between a DB write and the index write, file restored from
	// backup, ...) are swept out here.
	stale, err := ix.allDocIDs()
	if err != nil {
		return err
	}
	for _, id := range stale {
		n, convErr := strconv.ParseInt(id, 10, 64)
		if convErr != nil {
			batch.Delete(id) // unparseable key can't belong to any page
			continue
		}
		if _, ok := pages[n]; !ok {
			batch.Delete(id)
		}
	}

	for id, title := range pages {
		if err := batch.Index(docID(id), pageDoc{Title: title}); err != nil {
			return fmt.Errorf("search: batching page %d: %w", id, err)
		}
	}

	if err := ix.idx.Batch(batch); err != nil {
		return fmt.Errorf("search: rebuilding index: %w", err)
	}

	ix.logger.Info("search index rebuilt", slog.Int("pages", len(pages)))
	return nil
}

// Search returns the IDs of pages whose title matches the query, best
// match first. An empty or whitespace query returns no results rather
// than erroring — the dashboard just renders an empty list.
func (ix *Index) Search(query string) ([]int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	mq := bleve.NewMatchQuery(query)
	mq.SetField("title")

	req := bleve.NewSearchRequestOptions(mq, searchLimit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: querying %q: %w", query, err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, convErr := strconv.ParseInt(hit.ID, 10, 64)
		if convErr != nil {
			ix.logger.Warn("search hit with non-numeric id", slog.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// allDocIDs lists every document key currently in the index.
func (ix *Index) allDocIDs() ([]string, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), searchLimit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: listing index entries: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
