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
	"github.com/miguelr/journal-cms/internal/pdf"
	"github.com/miguelr/journal-cms/internal/service"
)

// ExportHandler serves the PDF download routes.
type ExportHandler struct {
	pages    *service.PageService
	auth     *service.AuthService
	exporter *pdf.Exporter
	render   *Renderer
	logger   *slog.Logger
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(
	pages *service.PageService,
	authSvc *service.AuthService,
	exporter *pdf.Exporter,
	render *Renderer,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		pages:    pages,
		auth:     authSvc,
		exporter: exporter,
		render:   render,
		logger:   logger,
	}
}

// HandleGenerateAll downloads the entire journal as journal.pdf.
//
// HTTP: GET /generate/
//
// A conversion failure is a 500, full stop — the one thing worse than no
// backup of your journal is a corrupt one you only open years later.
func (h *ExportHandler) HandleGenerateAll(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(r.Context())
	if err != nil {
		h.render.ServerError(w, err)
		return
	}

	doc, err := h.exporter.RenderAllPages(r.Context(), pages, h.ownerName(r))
	if err != nil {
		h.render.ServerError(w, err)
		return
	}

	servePDF(w, pdf.FilenameAllPages, doc)
}

// HandleGeneratePage downloads one page as journal-page.pdf.
//
// HTTP: GET /generate-page/{id}
func (h *ExportHandler) HandleGeneratePage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.render.NotFound(w)
		return
	}

	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.render.NotFound(w)
			return
		}
		h.render.ServerError(w, err)
		return
	}

	doc, err := h.exporter.RenderSinglePage(r.Context(), page)
	if err != nil {
		h.render.ServerError(w, err)
		return
	}

	servePDF(w, pdf.FilenameSinglePage, doc)
}

// servePDF writes a PDF as an attachment download.
func servePDF(w http.ResponseWriter, filename string, doc []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// ownerName mirrors the dashboard greeting lookup for the journal header.
func (h *ExportHandler) ownerName(r *http.Request) string {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return ""
	}
	user, err := h.auth.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("could not resolve user for export header",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return user.Name
}
