// Package server wires handlers, middleware and routes, and runs the HTTP
// server with graceful shutdown.
//
// main.go builds the stores and upstream clients and hands them over in
// Deps; New builds the services and handlers on top of them. Tests use the
// same path with in-memory stores and fake clients, calling Handler instead
// of Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/madison-marketplace/internal/auth"
	"github.com/sakif/madison-marketplace/internal/cdn"
	"github.com/sakif/madison-marketplace/internal/config"
	"github.com/sakif/madison-marketplace/internal/handler"
	"github.com/sakif/madison-marketplace/internal/middleware"
	"github.com/sakif/madison-marketplace/internal/repository"
	"github.com/sakif/madison-marketplace/internal/service"
	"github.com/sakif/madison-marketplace/internal/tagger"
)

const shutdownTimeout = 30 * time.Second

// Deps are the stores and clients the server runs on.
//
// Tagger, Uploader and Tokens are optional. Leave the field unset rather
// than storing a typed nil pointer in it.
type Deps struct {
	Users     repository.UserRepository
	Listings  repository.ListingRepository
	Tagger    tagger.Tagger
	Uploader  cdn.Uploader
	Tokens    *auth.TokenService
	Policy    *auth.Policy
	Passwords *auth.PasswordService

	// Closers are closed in order after the HTTP server stops.
	Closers []io.Closer
}

// Server represents the HTTP server and everything it owns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	deps   Deps
}

// New creates a Server and registers its routes.
func New(cfg config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	switch {
	case deps.Users == nil:
		return nil, errors.New("server: user repository is required")
	case deps.Listings == nil:
		return nil, errors.New("server: listing repository is required")
	case deps.Policy == nil:
		return nil, errors.New("server: account policy is required")
	case deps.Passwords == nil:
		return nil, errors.New("server: password service is required")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		deps:   deps,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	POST /auth/create              → create account
//	POST /auth/login               → login, sets session cookie
//	POST /auth/logout              → clear session cookie
//	GET  /api/me                   → session email (RequireAuth)
//	POST /listings                 → upload pipeline
//	POST /listings/tags            → describe an image only
//	GET  /listings/{id}            → one listing
//	POST /listings/{id}/sold       → mark sold
//	POST /listings/{id}/checkout   → simulated payment, then mark sold
//	GET  /search?q=                → category search over unsold listings
//	GET  /browse?tag=&exclude=     → tag filter over unsold listings
//	GET  /price-trends?category=   → median and recent prices
//	GET  /healthz                  → liveness
//
// Middleware runs in the order added. OptionalAuth is global so an upload
// can default the seller to the logged-in user.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.MaxBody(middleware.DefaultMaxBodyBytes))
	s.router.Use(auth.OptionalAuth(s.deps.Tokens))

	authService := service.NewAuthService(s.deps.Users, s.deps.Policy, s.deps.Passwords, s.deps.Tokens, s.logger)
	listingService := service.NewListingService(s.deps.Listings, s.deps.Tagger, s.deps.Uploader, s.logger)
	pricingService := service.NewPricingService(s.deps.Listings, s.logger)
	checkoutService := service.NewCheckoutService(listingService, s.logger)

	tokenTTL := auth.DefaultTokenTTL
	if s.deps.Tokens != nil {
		tokenTTL = s.deps.Tokens.TTL()
	}
	authHandler := handler.NewAuthHandler(authService, tokenTTL, s.config.CookieSecure, s.logger)
	listingHandler := handler.NewListingHandler(listingService, s.logger)
	trendsHandler := handler.NewTrendsHandler(pricingService, s.logger)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/create", authHandler.HandleCreate)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.deps.Tokens))
		r.Get("/api/me", authHandler.HandleMe)
	})

	s.router.Route("/listings", func(r chi.Router) {
		r.Post("/", listingHandler.HandleCreate)
		r.Post("/tags", listingHandler.HandleTags)
		r.Get("/{id}", listingHandler.HandleGet)
		r.Post("/{id}/sold", listingHandler.HandleSold)
		r.Post("/{id}/checkout", checkoutHandler.HandleCheckout)
	})

	s.router.Get("/search", listingHandler.HandleSearch)
	s.router.Get("/browse", listingHandler.HandleBrowse)
	s.router.Get("/price-trends", trendsHandler.HandleTrends)
}

// Close releases everything in Deps.Closers and joins their errors.
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.deps.Closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the stores.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // uploads wait on the vision model and the CDN
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("db_driver", s.config.DBDriver),
			slog.Bool("tagging", s.deps.Tagger != nil),
			slog.Bool("uploads", s.deps.Uploader != nil),
			slog.Bool("sessions", s.deps.Tokens != nil),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
