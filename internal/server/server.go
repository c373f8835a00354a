// Package server is the HTTP host bridge between the browser page and the viewer.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/config"
	"github.com/hyperjump/kagami/internal/render"
	"github.com/hyperjump/kagami/internal/viewer"
	"github.com/hyperjump/kagami/pkg/utils"
)

// Server serves the viewer page and its JSON API.
type Server struct {
	viewer      *viewer.Viewer
	highlighter *render.Highlighter
	config      *config.Config
	logger      *zap.Logger
	page        *template.Template
	events      *hub
	server      *http.Server
}

// NewServer creates a server for v. cfg supplies the listen address, code styles
// and the database path reported by the status endpoint.
func NewServer(v *viewer.Viewer, h *render.Highlighter, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		viewer:      v,
		highlighter: h,
		config:      cfg,
		logger:      utils.OrNop(logger),
		page:        template.Must(template.New("page").Parse(pageTemplate)),
		events:      newHub(),
	}
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))
		r.Get("/", s.handlePage)
		r.Get("/health", s.handleHealth)
	})
	r.Route("/api/v1", func(r chi.Router) {
		// The event stream stays open, so it skips the timeout and compression.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(middleware.Compress(5))
			r.Get("/state", s.handleState)
			r.Get("/status", s.handleStatus)
			r.Get("/theme.css", s.handleThemeCSS)
			r.Post("/files/open", s.handleOpenFile)
			r.Post("/search", s.handleSearch)
			r.Post("/search/next", s.handleSearchNext)
			r.Post("/search/previous", s.handleSearchPrevious)
			r.Delete("/search", s.handleSearchClose)
			r.Post("/commands/{name}", s.handleCommand)
			r.Delete("/about", s.handleDismissAbout)
		})
	})
	return r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.events.close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
