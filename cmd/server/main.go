// Package main is the entry point for the contribution graph server.
// Its job is limited to reading configuration from the environment,
// building the logger, and handing off to internal/server.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/contribgraph/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := envInt(logger, "PORT", 8080)

	// DB_PATH overrides for production, e.g. /var/lib/contribgraph/prod.db
	dbPath := "data/contribgraph.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if dbPath != ":memory:" {
		dbDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// JWT_SECRET should be a long random string, e.g.
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Without one we mint an ephemeral secret: the server runs, but every
	// restart invalidates all sessions.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logger.Error("failed to generate ephemeral JWT secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		jwtSecret = hex.EncodeToString(buf)
		logger.Warn("JWT_SECRET not set — using an ephemeral secret, sessions will not survive restarts")
	}

	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
		GitHubGraphQLURL:   os.Getenv("GITHUB_GRAPHQL_URL"),
		SyncCooldown:       time.Duration(envInt(logger, "SYNC_COOLDOWN_SECONDS", 300)) * time.Second,
		SyncMaxPerHour:     envInt(logger, "SYNC_MAX_PER_HOUR", 6),
		RateLimitPerMinute: envInt(logger, "RATE_LIMIT_PER_MINUTE", 60),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// envInt reads an integer environment variable, exiting on malformed
// values rather than silently running with the default.
func envInt(logger *slog.Logger, key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Error("invalid integer environment variable",
			slog.String("key", key),
			slog.String("value", raw),
		)
		os.Exit(1)
	}
	return n
}
