// Package server wires the dependency graph and runs the HTTP server.
//
// This is the composition root: the database, token codec, password hasher,
// service and handlers are all constructed here, each layer receiving only
// the interfaces it needs. main.go stays minimal — load config, build a
// Server, Start it.
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

	"github.com/bbg-music/auth-service/internal/auth"
	"github.com/bbg-music/auth-service/internal/config"
	"github.com/bbg-music/auth-service/internal/handler"
	"github.com/bbg-music/auth-service/internal/middleware"
	sqliteRepo "github.com/bbg-music/auth-service/internal/repository/sqlite"
	"github.com/bbg-music/auth-service/internal/service"
)

// Server owns the router, the database connection and the config. The DB is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and seeds the default admin
// account if the credential store doesn't have one yet.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(db, tokens, auth.NewPasswordService(), logger)

	// Bootstrap seam: a fresh deployment gets an admin account to change
	// the password of. Seeding is idempotent across restarts.
	if err := authService.SeedAdmin(context.Background(), cfg.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding admin user: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(authService, tokens)

	return s, nil
}

// setupRoutes mounts middleware and the auth endpoints.
//
// Three protection levels: public (register/login/refresh), authenticated
// (validate/me/change-password) and admin (role/tier mutation). The admin
// gate lives here at the boundary — the service performs no privilege check
// of its own.
func (s *Server) setupRoutes(authService *service.AuthService, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(authService, s.logger)

	requireAuth := auth.RequireAuth(tokens, handler.Unauthorized)
	requireAdmin := auth.RequireAdmin(handler.Forbidden)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/validate", authHandler.HandleValidate)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/change-password", authHandler.HandleChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Put("/{userID}/role", authHandler.HandleChangeRole)
				r.Put("/{userID}/subscription-tier", authHandler.HandleChangeTier)
			})
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests (30s budget), close
// the database to flush the WAL.
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

// Router exposes the mux for end-to-end tests.
func (s *Server) Router() http.Handler {
	return s.router
}
