// Package server is the composition root: it builds the services from a
// store and configuration, mounts the handlers on a chi router and runs the
// HTTP server with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config ──► OpenStore ──► repository.Store (neo4j or sqlite)
//	                                   │
//	              auth.TokenService ───┼──► service.AuthService ──► handler.AuthHandler
//	              auth.PasswordService ┘
//	                                   └──► service.FavoriteService ──► handler.FavoritesHandler
//
// Handlers only see services; services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/movieflix/internal/auth"
	"github.com/sakif/movieflix/internal/config"
	"github.com/sakif/movieflix/internal/handler"
	"github.com/sakif/movieflix/internal/middleware"
	"github.com/sakif/movieflix/internal/repository"
	neo4jRepo "github.com/sakif/movieflix/internal/repository/neo4j"
	sqliteRepo "github.com/sakif/movieflix/internal/repository/sqlite"
	"github.com/sakif/movieflix/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// store and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// OpenStore connects to the backend named by cfg.Store.Backend. For Neo4j
// it also applies the uniqueness constraints the repositories depend on.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendNeo4j:
		store, err := neo4jRepo.New(ctx, neo4jRepo.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureConstraints(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.BackendSQLite:
		db, err := sqliteRepo.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// New wires services and routes around store.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// POST   /api/auth/register             → AuthHandler.HandleRegister
// POST   /api/auth/login                → AuthHandler.HandleLogin (rate-limited per IP)
// GET    /api/account                   → AuthHandler.HandleMe          [auth]
// GET    /api/account/favorites         → FavoritesHandler.HandleList   [auth]
// POST   /api/account/favorites/{id}    → FavoritesHandler.HandleAdd    [auth]
// DELETE /api/account/favorites/{id}    → FavoritesHandler.HandleRemove [auth]
// GET    /healthz                       → HealthHandler.HandleHealth
// GET    /metrics                       → Prometheus exposition
//
// MIDDLEWARE ORDER:
// RequestID → RealIP → Logger → Recoverer → CORS. Logger sits outside
// Recoverer so a recovered panic is still logged with its 500.
func (s *Server) setupRoutes() error {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	passwords, err := auth.NewPasswordServiceWithCost(s.config.Auth.BcryptCost)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(s.store, s.tokens, passwords, s.logger)
	favoriteService := service.NewFavoriteService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	favoritesHandler := handler.NewFavoritesHandler(favoriteService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.With(s.loginLimiter()).Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))
			r.Get("/account", authHandler.HandleMe)
			r.Get("/account/favorites", favoritesHandler.HandleList)
			r.Post("/account/favorites/{id}", favoritesHandler.HandleAdd)
			r.Delete("/account/favorites/{id}", favoritesHandler.HandleRemove)
		})
	})

	return nil
}

// loginLimiter throttles login attempts per client IP. A zero limit turns
// it into a pass-through.
func (s *Server) loginLimiter() func(http.Handler) http.Handler {
	if s.config.HTTP.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(s.config.HTTP.LoginRateLimit, s.config.HTTP.RateLimitWindow)
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to Server.ShutdownTimeout and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(context.Background()); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("store", s.config.Store.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
