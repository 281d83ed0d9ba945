// Package handler contains the HTTP handlers for the journal.
//
// This is a server-rendered application: handlers parse form posts, call
// the service layer, and either render an html/template view or redirect.
// There is no JSON API — the browser is the only client.
package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
)

// pageTemplates lists every view that renders inside the base layout.
// Each is parsed TOGETHER with base.html, because they all define the same
// "content" block — parsing them into one template set would collide.
var pageTemplates = []string{
	"index.html",
	"login.html",
	"invalid.html",
	"signup.html",
	"new-user.html",
	"dashboard.html",
	"page.html",
	"edit-page.html",
	"new-page.html",
	"not-found.html",
}

// Renderer holds the parsed templates, one base+content set per view.
// Parsing happens once at startup; a bad template fails the boot rather
// than the first request that hits it.
type Renderer struct {
	views  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses all page templates under templateDir.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	views := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, name),
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing template %s: %w", name, err)
		}
		views[name] = tmpl
	}

	return &Renderer{views: views, logger: logger}, nil
}

// HTML renders a view inside the base layout with the given status code.
func (rd *Renderer) HTML(w http.ResponseWriter, status int, name string, data map[string]any) {
	tmpl, ok := rd.views[name]
	if !ok {
		rd.logger.Error("unknown template requested", slog.String("name", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Headers before body: once ExecuteTemplate starts writing, the status
	// line has gone out.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		// Too late for a clean 500 page — log it and stop.
		rd.logger.Error("failed to render template",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}

// NotFound renders the 404 page.
func (rd *Renderer) NotFound(w http.ResponseWriter) {
	rd.HTML(w, http.StatusNotFound, "not-found.html", map[string]any{
		"Title": "Page not found",
	})
}

// ServerError logs err and renders a bare 500. Internal details never
// reach the response body.
func (rd *Renderer) ServerError(w http.ResponseWriter, err error) {
	rd.logger.Error("request failed", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
