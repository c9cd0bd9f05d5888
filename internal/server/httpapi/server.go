// Package httpapi exposes the authentication flows as a JSON API over
// HTTP and owns the router, middleware, and response envelope.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dmitrijs2005/authgate/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server wraps an http.Server around the API router.
type Server struct {
	address     string
	corsOrigins []string
	handler     *Handler
	logger      logging.Logger
}

func NewServer(address string, corsOrigins []string, handler *Handler, logger logging.Logger) *Server {
	return &Server{
		address:     address,
		corsOrigins: corsOrigins,
		handler:     handler,
		logger:      logger.With("module", "http_server"),
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}).Handler)

	r.Get("/healthz", s.handler.Healthz)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/signup/credentials", s.handler.SignupCredentials)
		api.Post("/signup/google", s.handler.SignupGoogle)
		api.Post("/signup/apple", s.handler.SignupApple)
		api.Post("/auth/credentials", s.handler.SignInCredentials)
		api.Post("/auth/google", s.handler.SignInGoogle)
		api.Post("/auth/apple", s.handler.SignInApple)
		api.Post("/refresh", s.handler.Refresh)
		api.With(s.handler.RequireAuth).Get("/me", s.handler.Me)
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
