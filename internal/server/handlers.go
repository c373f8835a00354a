package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/bridge"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/search"
	"github.com/hyperjump/kagami/internal/storage"
	"github.com/hyperjump/kagami/internal/viewstate"
)

type pageData struct {
	Snapshot models.Snapshot
	Content  template.HTML
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.viewer.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// The content is renderer output, and raw HTML in the source is dropped unless
	// render.unsafe_html is set.
	data := pageData{Snapshot: snap, Content: template.HTML(snap.HTML)}
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.viewer.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resp := models.Status{
		FileName:     snap.FileName,
		Path:         snap.Path,
		Revision:     snap.Revision,
		Query:        snap.Query,
		MatchCount:   snap.MatchCount,
		Theme:        snap.Theme,
		Zoom:         snap.Zoom,
		DatabasePath: s.config.Storage.DatabasePath,
	}
	if size, err := storage.DatabaseSize(s.config.Storage.DatabasePath); err == nil {
		resp.DiskUsageBytes = &size
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	style := s.config.Render.DarkStyle
	if s.viewer.Theme() == viewstate.Light {
		style = s.config.Render.LightStyle
	}
	css, err := s.highlighter.CSS(style)
	if err != nil {
		s.logger.Error("theme css failed", zap.String("style", style), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(css))
}

type openRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleOpenFile(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("open file request", zap.String("path", req.Path))
	if err := s.viewer.Open(r.Context(), req.Path); err != nil {
		var readErr *bridge.FileReadError
		switch {
		case errors.Is(err, bridge.ErrUnsupportedFile):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, fs.ErrNotExist):
			s.respondError(w, http.StatusNotFound, "file not found")
		case errors.As(err, &readErr):
			s.respondError(w, http.StatusInternalServerError, err.Error())
		default:
			// Render failures still replace the document.
			s.logger.Error("open file failed", zap.Error(err))
			s.respondSnapshot(w, r)
		}
		return
	}
	s.respondSnapshot(w, r)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query))
	s.runSearch(w, r, func() (search.State, error) { return s.viewer.Search(r.Context(), req.Query) })
}

func (s *Server) handleSearchNext(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, func() (search.State, error) { return s.viewer.Next(r.Context()) })
}

func (s *Server) handleSearchPrevious(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, func() (search.State, error) { return s.viewer.Previous(r.Context()) })
}

func (s *Server) handleSearchClose(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, func() (search.State, error) { return s.viewer.CloseSearch(r.Context()) })
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, op func() (search.State, error)) {
	if _, err := op(); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondSnapshot(w, r)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ev, err := bridge.ParseCommand(name)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Debug("command", zap.String("name", name))
	if err := s.viewer.Handle(r.Context(), ev); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondSnapshot(w, r)
}

func (s *Server) handleDismissAbout(w http.ResponseWriter, r *http.Request) {
	if err := s.viewer.DismissAbout(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondSnapshot(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.viewer.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
