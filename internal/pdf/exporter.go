// Package pdf renders journal pages to downloadable PDF documents.
//
// THE PIPELINE:
// The export is a two-step conversion, same as the web pages themselves:
// render an HTML view of the page(s) with html/template, then feed that
// HTML to wkhtmltopdf. go-wkhtmltopdf drives the wkhtmltopdf binary, which
// must be installed on the host (apt install wkhtmltopdf).
//
// FAILURE MODE:
// If the binary is missing or the conversion exits non-zero, the export
// FAILS with an error and the handler returns a 500. We never fall back to
// serving whatever partial bytes were produced — a silently corrupt
// "journal.pdf" is worse than an error page.
package pdf

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/miguelr/journal-cms/internal/model"
)

// Suggested download filenames, used by the export handler in the
// Content-Disposition header.
const (
	FilenameAllPages   = "journal.pdf"
	FilenameSinglePage = "journal-page.pdf"
)

// Exporter holds the parsed print templates.
//
// These are NOT the web templates: the PDF views are standalone HTML
// documents (own <html>, inline print styling, no navigation chrome),
// parsed once at startup from web/templates/pdf/.
type Exporter struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewExporter parses the print templates under templateDir/pdf.
func NewExporter(templateDir string, logger *slog.Logger) (*Exporter, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "pdf", "journal.html"),
		filepath.Join(templateDir, "pdf", "page.html"),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf: parsing print templates: %w", err)
	}

	return &Exporter{templates: tmpl, logger: logger}, nil
}

// RenderAllPages renders the whole journal as one document and converts it
// to PDF. ownerName appears in the document header.
func (e *Exporter) RenderAllPages(ctx context.Context, pages []model.Page, ownerName string) ([]byte, error) {
	html, err := e.renderHTML("journal.html", map[string]any{
		"Name":  ownerName,
		"Pages": pages,
	})
	if err != nil {
		return nil, err
	}
	return e.convert(ctx, html)
}

// RenderSinglePage renders one page and converts it to PDF.
func (e *Exporter) RenderSinglePage(ctx context.Context, page *model.Page) ([]byte, error) {
	html, err := e.renderHTML("page.html", map[string]any{
		"Page": page,
	})
	if err != nil {
		return nil, err
	}
	return e.convert(ctx, html)
}

// renderHTML executes one of the print templates into a string. Split out
// from convert so the HTML half is testable without wkhtmltopdf installed.
func (e *Exporter) renderHTML(name string, data map[string]any) (string, error) {
	var buf strings.Builder
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("pdf: rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// convert feeds rendered HTML through wkhtmltopdf and returns the PDF
// bytes.
//
// NewPDFGenerator errors immediately when the wkhtmltopdf binary can't be
// found on PATH, which is exactly the loud failure we want — not an empty
// download. The ctx flows into CreateContext so an aborted request kills
// the subprocess instead of leaving it to finish for nobody.
func (e *Exporter) convert(ctx context.Context, html string) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("pdf: wkhtmltopdf unavailable: %w", err)
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(strings.NewReader(html)))

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("pdf: converting document: %w", err)
	}

	out := pdfg.Bytes()
	if len(out) == 0 {
		return nil, fmt.Errorf("pdf: converter produced no output")
	}

	e.logger.Debug("pdf generated", slog.Int("bytes", len(out)))
	return out, nil
}
