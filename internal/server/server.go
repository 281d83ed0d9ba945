// Package server sets up the HTTP server, the router, and all route
// definitions — the "wiring" layer.
//
// DEPENDENCY INJECTION FLOW:
// main.go reads config and creates the logger; New() assembles everything
// else in one place (the composition root):
//
//	sqlite.DB ─┬→ AuthService ─┬→ AuthHandler
//	           │               └→ session middleware
//	           └→ PageService ─┬→ PageHandler
//	search.Index ──┘           └→ ExportHandler ← pdf.Exporter
//
// There is no ambient singleton anywhere: every handler receives its
// dependencies explicitly, which is also what makes the integration tests
// in this package possible.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/miguelr/journal-cms/internal/auth"
	"github.com/miguelr/journal-cms/internal/handler"
	"github.com/miguelr/journal-cms/internal/middleware"
	"github.com/miguelr/journal-cms/internal/pdf"
	sqliteRepo "github.com/miguelr/journal-cms/internal/repository/sqlite"
	"github.com/miguelr/journal-cms/internal/search"
	"github.com/miguelr/journal-cms/internal/service"
)

// Config holds server configuration, assembled in cmd/server from the
// environment and injected here.
type Config struct {
	Port          int
	TemplateDir   string
	StaticDir     string
	DBPath        string // SQLite database file
	IndexPath     string // bleve search index directory
	SessionSecret string // HMAC key for session cookie tokens
	// OpenSignup lifts the login gate on /signup. The journal historically
	// required an existing login to create accounts — which means a fresh
	// install has no way to create the first one. Default stays faithful
	// (gated); set JOURNAL_OPEN_SIGNUP=1 to bootstrap.
	OpenSignup bool
}

// Server owns the router and the process-wide resources (database pool,
// search index), both closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	index  *search.Index
}

// New builds the full dependency graph and registers all routes.
//
// Startup order matters: the database opens first, then the search index,
// then the index is rebuilt from the pages table so the two agree before
// the first request arrives.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	index, err := search.Open(cfg.IndexPath, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		index:  index,
	}

	if err := s.setup(); err != nil {
		index.Close()
		db.Close()
		return nil, err
	}

	return s, nil
}

// setup wires services and handlers and registers the route table.
func (s *Server) setup() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService()
	authSvc := service.NewAuthService(s.db, s.db, passwords, tokens, s.logger)
	pageSvc := service.NewPageService(s.db, s.index, s.logger)

	// Bring the derived state in line with the store before serving.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pageSvc.Reindex(startupCtx); err != nil {
		return fmt.Errorf("rebuilding search index: %w", err)
	}
	if err := authSvc.CleanupExpiredSessions(startupCtx); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}

	render, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	exporter, err := pdf.NewExporter(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating pdf exporter: %w", err)
	}

	authHandler := handler.NewAuthHandler(authSvc, render, s.logger)
	pageHandler := handler.NewPageHandler(pageSvc, authSvc, render, s.logger)
	exportHandler := handler.NewExportHandler(pageSvc, authSvc, exporter, render, s.logger)

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Static files ===
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Public routes ===
	s.router.Get("/", pageHandler.HandleIndex)
	s.router.Get("/login", authHandler.HandleLoginForm)
	s.router.Post("/login", authHandler.HandleLogin)

	if s.config.OpenSignup {
		s.router.Get("/signup", authHandler.HandleSignupForm)
		s.router.Post("/signup", authHandler.HandleSignup)
	}

	// === Protected routes ===
	// Everything behind the session gate; failures redirect to /login.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokens, s.db))

		if !s.config.OpenSignup {
			r.Get("/signup", authHandler.HandleSignupForm)
			r.Post("/signup", authHandler.HandleSignup)
		}

		r.Get("/dashboard", pageHandler.HandleDashboard)
		r.Get("/logout", authHandler.HandleLogout)
		r.Get("/search", pageHandler.HandleSearch)

		r.Get("/page/{id}", pageHandler.HandleViewPage)
		r.Get("/edit-page/{id}", pageHandler.HandleEditForm)
		r.Post("/update-page/", pageHandler.HandleUpdate)
		r.Get("/new-page/", pageHandler.HandleNewForm)
		r.Post("/save-page/", pageHandler.HandleSave)
		r.Get("/delete-page/{id}", pageHandler.HandleDelete)

		r.Get("/generate/", exportHandler.HandleGenerateAll)
		r.Get("/generate-page/{id}", exportHandler.HandleGeneratePage)
	})

	return nil
}

// Handler exposes the router; the integration tests serve it through
// httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and search index. Start() does this itself;
// call Close directly only when the server was never started.
func (s *Server) Close() {
	if err := s.index.Close(); err != nil {
		s.logger.Error("closing search index", slog.String("error", err.Error()))
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("closing database", slog.String("error", err.Error()))
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, then close the index and database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // PDF conversion can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("searchIndex", s.config.IndexPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
