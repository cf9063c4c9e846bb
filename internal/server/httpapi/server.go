package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/techroad/techroad/internal/logging"
	"github.com/techroad/techroad/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and the route table.
type Server struct {
	address string
	router  http.Handler
	logger  logging.Logger
}

func NewServer(address string, auth *services.AuthService, logger logging.Logger) *Server {
	h := NewHandler(auth, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)
		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.updateProfile)
		r.Get("/verify-token", h.verifyToken)
	})

	return &Server{
		address: address,
		router:  r,
		logger:  logger.With("module", "http_server"),
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
