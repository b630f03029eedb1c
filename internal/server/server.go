// Package server is the composition root: it opens the database, wires
// repositories into services and services into handlers, and defines
// every route. main.go stays minimal — load config, call New, Start.
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
	"github.com/go-chi/httprate"

	"github.com/sakif/contribgraph/internal/auth"
	"github.com/sakif/contribgraph/internal/github"
	"github.com/sakif/contribgraph/internal/handler"
	"github.com/sakif/contribgraph/internal/middleware"
	sqliteRepo "github.com/sakif/contribgraph/internal/repository/sqlite"
	"github.com/sakif/contribgraph/internal/service"
)

// Config holds everything the server needs at startup. Loaded from the
// environment in main.go.
type Config struct {
	Port   int
	DBPath string

	// Session and OAuth credentials
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Upstream GitHub API; overridable for local stubs
	GitHubGraphQLURL string

	// Sync admission
	SyncCooldown   time.Duration
	SyncMaxPerHour int

	// Per-IP request budget on the hot heatmap path
	RateLimitPerMinute int
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer receives only
// what it needs: services get repository interfaces, handlers get
// services, and nothing below the handler layer sees HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and every route.
//
// ROUTE MAP:
//
//	GET  /                              → service index
//	GET  /health/live                   → liveness probe
//	GET  /health/db                     → database probe
//	GET  /auth/github/login             → start OAuth flow
//	GET  /auth/github/callback          → finish OAuth flow
//	POST /auth/logout                   → clear session cookie
//	GET  /api/me                        → session profile        [auth]
//	POST /api/profiles                  → register profile
//	GET  /api/profiles                  → list profiles
//	GET  /api/profiles/{username}       → get profile
//	POST /api/profiles/{username}/days  → record one day
//	POST /api/profiles/{username}/sync  → refresh from GitHub
//	GET  /api/profiles/{username}/sync  → sync history
//	GET  /api/levels                    → level taxonomy legend
//	GET  /api/heatmap/me                → live view              [bearer token, rate-limited]
//	GET  /api/heatmap/{username}        → weeks payload
//	GET  /api/heatmap/{username}/grid   → calendar grid
//	GET  /api/public/{publicID}/grid    → shareable grid
//
// Middleware order matters: RequestID and RealIP run first so the
// logger and the rate limiter see the corrected client identity, and
// Recoverer wraps everything below it.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	ghProvider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	ghClient := github.NewClient(github.Config{GraphQLURL: s.config.GitHubGraphQLURL})

	profileSvc := service.NewProfileService(s.db, s.db)
	heatmapSvc := service.NewHeatmapService(s.db, s.db, ghClient)
	syncSvc := service.NewSyncService(s.db, s.db, s.db, ghClient,
		service.GateConfig{
			Cooldown:   s.config.SyncCooldown,
			MaxPerHour: s.config.SyncMaxPerHour,
		}, s.logger)

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(ghProvider, tokens, profileSvc, s.logger)
	profileHandler := handler.NewProfileHandler(profileSvc, s.logger)
	heatmapHandler := handler.NewHeatmapHandler(heatmapSvc, s.logger)
	syncHandler := handler.NewSyncHandler(syncSvc, s.logger)

	s.router.Get("/", healthHandler.HandleIndex)
	s.router.Get("/health/live", healthHandler.HandleLive)
	s.router.Get("/health/db", healthHandler.HandleDB)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/profiles", profileHandler.HandleCreate)
		r.Get("/profiles", profileHandler.HandleList)
		r.Get("/profiles/{username}", profileHandler.HandleGet)
		r.Post("/profiles/{username}/days", profileHandler.HandleRecordDay)
		r.Post("/profiles/{username}/sync", syncHandler.HandleSync)
		r.Get("/profiles/{username}/sync", syncHandler.HandleHistory)

		// The session cookie guards only /api/me; /api/heatmap/me is
		// authenticated by the GitHub bearer token it forwards upstream.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
		})

		// Per-IP budget on the live view. It is the endpoint a dashboard
		// polls, and its limiter is unrelated to the sync gate.
		r.With(httprate.LimitByIP(s.config.RateLimitPerMinute, time.Minute)).
			Get("/heatmap/me", heatmapHandler.HandleMe)

		r.Get("/levels", heatmapHandler.HandleLevels)
		r.Get("/heatmap/{username}", heatmapHandler.HandleSeries)
		r.Get("/heatmap/{username}/grid", heatmapHandler.HandleGrid)
		r.Get("/public/{publicID}/grid", heatmapHandler.HandlePublicGrid)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL, releases the lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
