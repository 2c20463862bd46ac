// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the
// whole dependency chain is assembled in one place:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete sqlite.DB), handlers get services. The
// handler never touches the database; the service never touches HTTP.
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

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/handler"
	"github.com/sakif/microblog/internal/middleware"
	sqliteRepo "github.com/sakif/microblog/internal/repository/sqlite"
	"github.com/sakif/microblog/internal/service"
)

// requestTimeout bounds handler execution. Chi's Timeout middleware
// cancels the request context at the deadline; handlers that notice
// report 504.
const requestTimeout = 15 * time.Second

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// GitHub OAuth is optional. When ClientID is empty the /auth/github
	// routes are not mounted.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL gets flushed and the file
// lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds every service and
// handler, and wires the routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath, logger)
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

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order it's added:
//  1. RequestID — unique ID per request, for tracing
//  2. RealIP — real client IP from proxy headers
//  3. Logger — structured request log
//  4. Recoverer — panics become 500s instead of crashes
//  5. Timeout — cancels the request context after 15s
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(requestTimeout))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	tweetService := service.NewTweetService(
		s.db.Tweets(), s.db.Likes(), s.db.Replies(), s.db.Follows(), s.db.Users(), s.logger)
	followService := service.NewFollowService(s.db.Follows(), s.db.Users(), s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	tweetHandler := handler.NewTweetHandler(tweetService, s.logger)
	userHandler := handler.NewUserHandler(authService, followService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// === Auth Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		r.Route("/tweets", func(r chi.Router) {
			// Feeds readable anonymously; isLiked needs a viewer.
			r.With(optionalAuth).Get("/", tweetHandler.HandleFeed)
			r.With(optionalAuth).Get("/{id}", tweetHandler.HandleGet)
			r.Get("/{id}/replies", tweetHandler.HandleListReplies)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", tweetHandler.HandleCreate)
				r.Get("/following", tweetHandler.HandleFollowingFeed)
				r.Get("/recommended", tweetHandler.HandleRecommendedFeed)
				r.Delete("/{id}", tweetHandler.HandleDelete)
				r.Post("/{id}/like", tweetHandler.HandleToggleLike)
				r.Delete("/{id}/like", tweetHandler.HandleUnlike)
				r.Post("/{id}/replies", tweetHandler.HandleCreateReply)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", userHandler.HandleGet)
			r.Get("/{id}/followers", userHandler.HandleFollowers)
			r.Get("/{id}/following", userHandler.HandleFollowing)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/{id}/follow", userHandler.HandleFollowStatus)
				r.Post("/{id}/follow", userHandler.HandleFollowAction)
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest in handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Start callers
// don't need this; tests do.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock)
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
