// Package server exposes the sample, render and template operations as a
// JSON API for the editor front end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizmaker/internal/config"
	"github.com/abhisek/quizmaker/internal/store"
)

// Server serves the JSON API.
type Server struct {
	cfg       config.Config
	templates store.TemplateRepo
	router    chi.Router
}

// New builds the router. templates may be nil, in which case the
// template endpoints answer 503.
func New(cfg config.Config, templates store.TemplateRepo) *Server {
	s := &Server{cfg: cfg, templates: templates}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if s.cfg.HTTP.Timeout > 0 {
		r.Use(middleware.Timeout(s.cfg.HTTP.Timeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/samples", s.handleSamples)
		r.Post("/render", s.handleRender)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/format", s.handleFormat)
		r.Post("/preview", s.handlePreview)
		r.Post("/validate", s.handleValidate)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetTemplate)
				r.Put("/", s.handlePutTemplate)
				r.Delete("/", s.handleDeleteTemplate)
			})
		})
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
