// Package search finds and highlights query matches inside rendered HTML.
package search

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hyperjump/kagami/internal/models"
)

// ErrStaleContent is returned by SetContent for a generation older than the current one.
var ErrStaleContent = errors.New("stale content generation")

// Scroller brings the marker with the given anchor id into view.
type Scroller interface {
	ScrollTo(anchor string)
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(anchor string)

// ScrollTo calls f(anchor).
func (f ScrollFunc) ScrollTo(anchor string) { f(anchor) }

// State is the externally visible search state.
type State struct {
	Generation   uint64 `json:"generation"`
	Query        string `json:"query"`
	MatchCount   int    `json:"match_count"`
	ActiveIndex  int    `json:"active_index"`
	ActiveAnchor string `json:"active_anchor,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScroller sets the receiver of scroll-to-active requests.
func WithScroller(s Scroller) Option {
	return func(e *Engine) { e.scroller = s }
}

// Engine holds the content of one document generation, the current query, its
// matches and the active cursor. The content tree is never mutated; highlighted
// output is always a fresh Overlay of it.
type Engine struct {
	mu       sync.Mutex
	logger   *zap.Logger
	scroller Scroller

	generation uint64
	content    *html.Node
	plainHTML  string

	query   string
	matches models.MatchList
	active  int

	overlay     *html.Node
	overlayHTML string
}

// NewEngine creates an engine with no content.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), active: -1}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetContent replaces the content with rendered HTML of the given generation. Any
// overlay and match list are dropped; the query is kept so that Rescan can re-apply it.
func (e *Engine) SetContent(generation uint64, rendered string) error {
	root, err := Parse(rendered)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if generation < e.generation {
		return ErrStaleContent
	}
	e.generation = generation
	e.content = root
	e.plainHTML = rendered
	e.invalidate()
	return nil
}

// Invalidate drops the overlay and the match list but keeps content and query.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidate()
}

func (e *Engine) invalidate() {
	e.overlay = nil
	e.overlayHTML = ""
	e.matches = nil
	e.active = -1
}

// Search sets the query and runs Scan and Overlay as one step. An empty query
// removes the overlay.
func (e *Engine) Search(query string) State {
	e.mu.Lock()
	e.query = NormalizeQuery(query)
	anchor := e.rescan()
	st := e.state()
	e.mu.Unlock()
	e.scroll(anchor)
	return st
}

// Rescan re-applies the current query to the current content. It does not scroll;
// re-render pipelines call ScrollToActive as their own stage.
func (e *Engine) Rescan() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rescan()
	return e.state()
}

func (e *Engine) rescan() string {
	e.invalidate()
	if e.query == "" || e.content == nil {
		return ""
	}
	e.matches = Scan(e.content, e.query)
	if len(e.matches) == 0 {
		e.logger.Debug("no matches", zap.String("query", e.query), zap.Uint64("generation", e.generation))
		return ""
	}
	e.active = 0
	e.rebuild()
	e.logger.Debug("search applied",
		zap.String("query", e.query),
		zap.Int("matches", len(e.matches)),
		zap.Uint64("generation", e.generation),
	)
	return AnchorID(e.active)
}

// rebuild regenerates the overlay for the current matches and active index.
func (e *Engine) rebuild() {
	e.overlay = Overlay(e.content, e.matches, e.active)
	out, err := Render(e.overlay)
	if err != nil {
		e.logger.Warn("render overlay failed", zap.Error(err))
		e.overlay = nil
		e.overlayHTML = ""
		return
	}
	e.overlayHTML = out
}

// Next moves the active match forward, wrapping to the first.
func (e *Engine) Next() State {
	return e.move(func(active, n int) int { return (active + 1) % n })
}

// Previous moves the active match backward, wrapping to the last.
func (e *Engine) Previous() State {
	return e.move(func(active, n int) int {
		if active <= 0 {
			return n - 1
		}
		return active - 1
	})
}

func (e *Engine) move(step func(active, n int) int) State {
	e.mu.Lock()
	n := len(e.matches)
	if n == 0 {
		st := e.state()
		e.mu.Unlock()
		return st
	}
	e.active = step(e.active, n)
	e.rebuild()
	anchor := AnchorID(e.active)
	st := e.state()
	e.mu.Unlock()
	e.scroll(anchor)
	return st
}

// Clear removes the overlay, the matches and the query.
func (e *Engine) Clear() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = ""
	e.invalidate()
	return e.state()
}

// ScrollToActive reports the active anchor to the scroller, if there is one.
func (e *Engine) ScrollToActive() {
	e.mu.Lock()
	anchor := ""
	if e.active >= 0 {
		anchor = AnchorID(e.active)
	}
	e.mu.Unlock()
	e.scroll(anchor)
}

func (e *Engine) scroll(anchor string) {
	if anchor == "" || e.scroller == nil {
		return
	}
	e.scroller.ScrollTo(anchor)
}

// State returns the current search state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *Engine) state() State {
	st := State{
		Generation:  e.generation,
		Query:       e.query,
		MatchCount:  len(e.matches),
		ActiveIndex: e.active,
	}
	if e.active >= 0 {
		st.ActiveAnchor = AnchorID(e.active)
	}
	return st
}

// HTML returns the content with the overlay applied, or the rendered HTML exactly
// as given to SetContent when there is no overlay.
func (e *Engine) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overlay != nil {
		return e.overlayHTML
	}
	return e.plainHTML
}

// Matches returns a copy of the current match list.
func (e *Engine) Matches() models.MatchList {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append(models.MatchList(nil), e.matches...)
}

// Generation returns the generation of the current content.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
