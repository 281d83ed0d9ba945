package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/auth"
	"github.com/miguelr/journal-cms/internal/model"
	"github.com/miguelr/journal-cms/internal/service"
)

// PageHandler serves the journal's page CRUD flow: the dashboard, the
// view/edit/new forms, search, and the POST targets they submit to.
type PageHandler struct {
	pages  *service.PageService
	auth   *service.AuthService
	render *Renderer
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(pages *service.PageService, authSvc *service.AuthService, render *Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{pages: pages, auth: authSvc, render: render, logger: logger}
}

// HandleIndex shows the public landing page.
//
// HTTP: GET /
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "index.html", map[string]any{
		"Title": "Journal",
	})
}

// HandleDashboard lists every page, newest first.
//
// HTTP: GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(r.Context())
	if err != nil {
		h.render.ServerError(w, err)
		return
	}

	h.render.HTML(w, http.StatusOK, "dashboard.html", map[string]any{
		"Title": "Dashboard",
		"Name":  h.ownerName(r),
		"Pages": pages,
		"Query": "",
	})
}

// HandleSearch runs a title search and renders the results as a dashboard
// list. An empty query renders an empty list, not an error.
//
// HTTP: GET /search?query=...
func (h *PageHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	pages, err := h.pages.Search(r.Context(), query)
	if err != nil {
		h.render.ServerError(w, err)
		return
	}

	h.render.HTML(w, http.StatusOK, "dashboard.html", map[string]any{
		"Title": "Search results",
		"Name":  h.ownerName(r),
		"Pages": pages,
		"Query": query,
	})
}

// HandleViewPage shows a single page. A missing or malformed id renders a
// clean 404 page.
//
// HTTP: GET /page/{id}
func (h *PageHandler) HandleViewPage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookupPage(w, r)
	if !ok {
		return
	}

	h.render.HTML(w, http.StatusOK, "page.html", map[string]any{
		"Title": page.Title,
		"Page":  page,
	})
}

// HandleEditForm shows the edit form pre-filled with the current fields.
//
// HTTP: GET /edit-page/{id}
func (h *PageHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookupPage(w, r)
	if !ok {
		return
	}

	h.render.HTML(w, http.StatusOK, "edit-page.html", map[string]any{
		"Title": "Edit: " + page.Title,
		"Page":  page,
	})
}

// HandleUpdate applies the edit form: a full replace of title,
// description, content, and date, then a redirect to the page view.
//
// HTTP: POST /update-page/ — fields: id, title, description, content, date
//
// An id that no longer exists is a quiet no-op; the redirect then lands on
// the 404 page. That mirrors the fire-and-redirect nature of the form —
// there's no one to show an update error to.
func (h *PageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		h.render.NotFound(w)
		return
	}

	err = h.pages.Update(r.Context(), id,
		r.PostFormValue("title"),
		r.PostFormValue("description"),
		r.PostFormValue("content"),
		r.PostFormValue("date"),
	)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.render.ServerError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/page/%d", id), http.StatusSeeOther)
}

// HandleNewForm shows the empty create form.
//
// HTTP: GET /new-page/
func (h *PageHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "new-page.html", map[string]any{
		"Title":  "New page",
		"Errors": apperror.FieldErrors{},
		"Values": map[string]string{},
	})
}

// HandleSave creates a page from the new-page form and redirects to the
// dashboard, where it is immediately visible (and searchable).
//
// HTTP: POST /save-page/ — fields: title, description, content, date
func (h *PageHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	title := r.PostFormValue("title")
	description := r.PostFormValue("description")
	content := r.PostFormValue("content")
	date := r.PostFormValue("date")

	_, err := h.pages.Create(r.Context(), title, description, content, date)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.render.HTML(w, http.StatusOK, "new-page.html", map[string]any{
				"Title":  "New page",
				"Errors": fieldErrors(err),
				"Values": map[string]string{
					"title":       title,
					"description": description,
					"content":     content,
					"date":        date,
				},
			})
			return
		}
		h.render.ServerError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleDelete removes a page and returns to the dashboard. Deleting a
// page that's already gone behaves exactly like deleting one that isn't.
//
// HTTP: GET /delete-page/{id}
func (h *PageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w)
		return
	}

	if err := h.pages.Delete(r.Context(), id); err != nil {
		h.render.ServerError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// lookupPage parses {id} and fetches the page, rendering a 404 page and
// returning ok=false when either step fails.
func (h *PageHandler) lookupPage(w http.ResponseWriter, r *http.Request) (page *model.Page, ok bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w)
		return nil, false
	}

	p, err := h.pages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.render.NotFound(w)
			return nil, false
		}
		h.render.ServerError(w, err)
		return nil, false
	}

	return p, true
}

// ownerName resolves the logged-in user's display name for the dashboard
// greeting. Failures degrade to an empty name rather than a broken page.
func (h *PageHandler) ownerName(r *http.Request) string {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return ""
	}
	user, err := h.auth.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("could not resolve user for greeting",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return user.Name
}
