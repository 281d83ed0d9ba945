// Package main is the entry point for the journal server.
//
// main stays minimal: read configuration, build the logger, hand both to
// internal/server and block. All real logic lives in the internal
// packages, where it's testable without a process boundary.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/miguelr/journal-cms/internal/server"
)

// devSessionSecret keeps `go run ./cmd/server` working out of the box.
// Any real deployment must set SESSION_SECRET — main logs a loud warning
// when the fallback is used.
const devSessionSecret = "dev-only-session-secret-change-me"

func main() {
	// .env is optional — absent in production, convenient in development.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := envOr("DB_PATH", "data/journal.db")
	indexPath := envOr("INDEX_PATH", "data/journal.bleve")

	// The database file and the index directory share a parent; create it
	// up front so first run works from a clean checkout.
	for _, dir := range []string{filepath.Dir(dbPath), filepath.Dir(indexPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		logger.Warn("SESSION_SECRET not set — using an insecure development secret")
		secret = devSessionSecret
	}

	openSignup := os.Getenv("JOURNAL_OPEN_SIGNUP") == "1"
	if openSignup {
		logger.Warn("JOURNAL_OPEN_SIGNUP=1 — /signup is reachable without logging in")
	}

	cfg := server.Config{
		Port:          port,
		TemplateDir:   envOr("TEMPLATE_DIR", "web/templates"),
		StaticDir:     envOr("STATIC_DIR", "web/static"),
		DBPath:        dbPath,
		IndexPath:     indexPath,
		SessionSecret: secret,
		OpenSignup:    openSignup,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
