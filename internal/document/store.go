// Package document holds the currently opened markdown document.
package document

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/fileid"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/render"
	"github.com/hyperjump/kagami/pkg/utils"
)

// Store is a single slot holding the current document. Every Load replaces the
// document wholesale and bumps the generation.
type Store struct {
	mu         sync.RWMutex
	renderer   render.Renderer
	logger     *zap.Logger
	now        func() time.Time
	current    *models.Document
	generation uint64
}

// NewStore creates an empty store rendering through r.
func NewStore(r render.Renderer, logger *zap.Logger) *Store {
	return &Store{renderer: r, logger: utils.OrNop(logger), now: time.Now}
}

// Load replaces the current document with rawText and renders it. When rendering
// fails the document is still replaced, with empty HTML, and the error is returned.
func (s *Store) Load(rawText, fileName, path string) (*models.Document, error) {
	html, renderErr := s.renderer.Render(rawText)
	if renderErr != nil {
		html = ""
		renderErr = fmt.Errorf("render %s: %w", fileName, renderErr)
	}

	s.mu.Lock()
	s.generation++
	doc := &models.Document{
		Revision:     uuid.NewString(),
		Generation:   s.generation,
		Path:         path,
		FileName:     fileName,
		RawText:      rawText,
		RenderedHTML: html,
		LoadedAt:     s.now(),
	}
	if path != "" {
		doc.ID = fileid.DocumentID(path)
	}
	s.current = doc
	s.mu.Unlock()

	if renderErr != nil {
		s.logger.Error("render failed", zap.String("file", fileName), zap.Error(renderErr))
	} else {
		s.logger.Debug("document loaded",
			zap.String("file", fileName),
			zap.Uint64("generation", doc.Generation),
			zap.Int("bytes", len(rawText)),
		)
	}
	return doc, renderErr
}

// Current returns the current document, or nil before the first Load.
func (s *Store) Current() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Generation returns the number of loads so far.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
