// Package viewer wires the document store, search engine and view state together
// behind a single ordered event queue.
package viewer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/bridge"
	"github.com/hyperjump/kagami/internal/dispatch"
	"github.com/hyperjump/kagami/internal/document"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/search"
	"github.com/hyperjump/kagami/internal/viewstate"
	"github.com/hyperjump/kagami/pkg/utils"
)

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the logger used by the viewer and its engine.
func WithLogger(l *zap.Logger) Option {
	return func(v *Viewer) { v.logger = utils.OrNop(l) }
}

// WithKeepQueryOnOpen re-applies the active query to newly opened files instead of
// clearing it.
func WithKeepQueryOnOpen(keep bool) Option {
	return func(v *Viewer) { v.keepQueryOnOpen = keep }
}

// WithAbout sets the content of the about dialog.
func WithAbout(a models.About) Option {
	return func(v *Viewer) { v.about = a }
}

// WithScroller receives the anchor of the active match whenever it should be
// brought into view.
func WithScroller(s search.Scroller) Option {
	return func(v *Viewer) { v.scroller = s }
}

// WithOnLoad registers a function called with every newly loaded document, on the
// queue, before its deferred stages run.
func WithOnLoad(fn func(doc *models.Document)) Option {
	return func(v *Viewer) { v.onLoad = fn }
}

// Viewer is the single thread of control through which every event passes. All
// exported methods are safe for concurrent use; they are serialized by the queue.
type Viewer struct {
	queue  *dispatch.Queue
	docs   *document.Store
	engine *search.Engine
	view   *viewstate.State
	logger *zap.Logger

	scroller        search.Scroller
	onLoad          func(doc *models.Document)
	keepQueryOnOpen bool
	about           models.About
	aboutVisible    bool
}

// New creates a viewer over docs and view.
func New(docs *document.Store, view *viewstate.State, opts ...Option) *Viewer {
	v := &Viewer{docs: docs, view: view, logger: zap.NewNop()}
	for _, o := range opts {
		o(v)
	}
	v.queue = dispatch.NewQueue(v.logger)
	engineOpts := []search.Option{search.WithLogger(v.logger)}
	if v.scroller != nil {
		engineOpts = append(engineOpts, search.WithScroller(v.scroller))
	}
	v.engine = search.NewEngine(engineOpts...)
	return v
}

// Open reads the markdown file at path and delivers it. A read failure leaves the
// current document in place.
func (v *Viewer) Open(ctx context.Context, path string) error {
	ev, err := bridge.OpenFile(path)
	if err != nil {
		v.logger.Warn("open file failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return v.Deliver(ctx, ev)
}

// Deliver loads an opened file. The active query is cleared unless the viewer was
// built with WithKeepQueryOnOpen.
func (v *Viewer) Deliver(ctx context.Context, ev bridge.FileOpened) error {
	return v.queue.Do(ctx, ev.EventName(), func(context.Context) error {
		return v.load(ev, v.keepQueryOnOpen)
	})
}

// Reload re-reads path after an external change. The active query is kept and
// re-applied to the new content.
func (v *Viewer) Reload(ctx context.Context, path string) error {
	ev, err := bridge.OpenFile(path)
	if err != nil {
		v.logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return v.queue.Do(ctx, "reload", func(context.Context) error {
		return v.load(ev, true)
	})
}

// load must run on the queue. It replaces the document and schedules the rescan
// and scroll stages for the new generation.
func (v *Viewer) load(ev bridge.FileOpened, keepQuery bool) error {
	if !keepQuery {
		v.engine.Clear()
	}
	doc, err := v.docs.Load(ev.Content, ev.Name, ev.Path)
	generation := doc.Generation
	if serr := v.engine.SetContent(generation, doc.RenderedHTML); serr != nil {
		v.logger.Error("set content", zap.Uint64("generation", generation), zap.Error(serr))
	}
	v.logger.Info("file opened", zap.String("file", ev.Name), zap.Uint64("generation", generation))
	if v.onLoad != nil {
		v.onLoad(doc)
	}

	v.queue.Defer("rescan", func(context.Context) {
		if !v.current(generation, "rescan") {
			return
		}
		v.engine.Invalidate()
		if v.engine.State().Query != "" {
			v.engine.Rescan()
		}
	})
	v.queue.Defer("scroll", func(context.Context) {
		if !v.current(generation, "scroll") {
			return
		}
		v.engine.ScrollToActive()
	})
	return err
}

// current reports whether a stage scheduled for generation is still valid.
func (v *Viewer) current(generation uint64, stage string) bool {
	if g := v.docs.Generation(); g != generation {
		v.logger.Debug("discard stale stage",
			zap.String("stage", stage),
			zap.Uint64("scheduled", generation),
			zap.Uint64("current", g),
		)
		return false
	}
	return true
}

// Handle dispatches a host event.
func (v *Viewer) Handle(ctx context.Context, ev bridge.Event) error {
	if fo, ok := ev.(bridge.FileOpened); ok {
		return v.Deliver(ctx, fo)
	}
	return v.queue.Do(ctx, ev.EventName(), func(ctx context.Context) error {
		switch ev.(type) {
		case bridge.ShowAbout:
			v.aboutVisible = true
		case bridge.ZoomIn:
			v.view.ZoomIn(ctx)
		case bridge.ZoomOut:
			v.view.ZoomOut(ctx)
		case bridge.ZoomReset:
			v.view.ZoomReset(ctx)
		case bridge.ToggleTheme:
			v.view.ToggleTheme(ctx)
		default:
			return fmt.Errorf("%w: %s", bridge.ErrUnknownCommand, ev.EventName())
		}
		return nil
	})
}

// Search applies query to the current content.
func (v *Viewer) Search(ctx context.Context, query string) (search.State, error) {
	return v.searchOp(ctx, "search", func() search.State { return v.engine.Search(query) })
}

// Next moves to the next match.
func (v *Viewer) Next(ctx context.Context) (search.State, error) {
	return v.searchOp(ctx, "search-next", v.engine.Next)
}

// Previous moves to the previous match.
func (v *Viewer) Previous(ctx context.Context) (search.State, error) {
	return v.searchOp(ctx, "search-previous", v.engine.Previous)
}

// CloseSearch clears the query and removes every highlight.
func (v *Viewer) CloseSearch(ctx context.Context) (search.State, error) {
	return v.searchOp(ctx, "search-close", v.engine.Clear)
}

func (v *Viewer) searchOp(ctx context.Context, name string, op func() search.State) (search.State, error) {
	var st search.State
	err := v.queue.Do(ctx, name, func(context.Context) error {
		st = op()
		return nil
	})
	return st, err
}

// ToggleTheme switches the theme.
func (v *Viewer) ToggleTheme(ctx context.Context) error {
	return v.Handle(ctx, bridge.ToggleTheme{})
}

// DismissAbout hides the about dialog.
func (v *Viewer) DismissAbout(ctx context.Context) error {
	return v.queue.Do(ctx, "dismiss-about", func(context.Context) error {
		v.aboutVisible = false
		return nil
	})
}

// Snapshot returns a consistent view of the document, search and view state.
func (v *Viewer) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := v.queue.Do(ctx, "snapshot", func(context.Context) error {
		st := v.engine.State()
		snap = models.Snapshot{
			HTML:         v.engine.HTML(),
			Query:        st.Query,
			MatchCount:   st.MatchCount,
			ActiveIndex:  st.ActiveIndex,
			ActiveAnchor: st.ActiveAnchor,
			Theme:        string(v.view.Theme()),
			Zoom:         v.view.Zoom(),
			AboutVisible: v.aboutVisible,
			About:        v.about,
		}
		if doc := v.docs.Current(); doc != nil {
			snap.FileName = doc.FileName
			snap.Path = doc.Path
			snap.Revision = doc.Revision
		}
		return nil
	})
	return snap, err
}

// Theme returns the current theme without going through the queue.
func (v *Viewer) Theme() viewstate.Theme {
	return v.view.Theme()
}
