package viewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kagami/internal/bridge"
	"github.com/hyperjump/kagami/internal/document"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/render"
	"github.com/hyperjump/kagami/internal/search"
	"github.com/hyperjump/kagami/internal/storage"
	"github.com/hyperjump/kagami/internal/viewstate"
)

func newViewer(t *testing.T, opts ...Option) *Viewer {
	t.Helper()
	md := render.NewMarkdown(render.NewHighlighter(), render.Options{HardWraps: true})
	view := viewstate.New(storage.NewMemoryStorage(), viewstate.Dark, nil)
	return New(document.NewStore(md, nil), view, opts...)
}

func file(name, content string) bridge.FileOpened {
	return bridge.FileOpened{Name: name, Path: "/docs/" + name, Content: content}
}

func TestViewer_DeliverAndSearch(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t)
	require.NoError(t, v.Deliver(ctx, file("a.md", "Hello world. Hello again.")))

	st, err := v.Search(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, st.MatchCount)
	assert.Equal(t, 0, st.ActiveIndex)

	st, err = v.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ActiveIndex)

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.md", snap.FileName)
	assert.Equal(t, "search-match-1", snap.ActiveAnchor)
	assert.Equal(t, 2, strings.Count(snap.HTML, `<mark class="search-highlight`))
}

func TestViewer_NewFileClearsQuery(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t)
	require.NoError(t, v.Deliver(ctx, file("a.md", "hello hello")))
	_, err := v.Search(ctx, "hello")
	require.NoError(t, err)

	require.NoError(t, v.Deliver(ctx, file("b.md", "hello hello hello")))

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b.md", snap.FileName)
	assert.Empty(t, snap.Query)
	assert.Equal(t, 0, snap.MatchCount)
	assert.Equal(t, -1, snap.ActiveIndex)
	assert.NotContains(t, snap.HTML, "<mark")
}

func TestViewer_KeepQueryOnOpen(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t, WithKeepQueryOnOpen(true))
	require.NoError(t, v.Deliver(ctx, file("a.md", "hello hello")))
	st, err := v.Search(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, 2, st.MatchCount)

	require.NoError(t, v.Deliver(ctx, file("b.md", "hello\n\nhello\n\nhello")))

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", snap.Query)
	assert.Equal(t, 3, snap.MatchCount)
	assert.Equal(t, 0, snap.ActiveIndex)
	assert.Equal(t, 3, strings.Count(snap.HTML, `<mark class="search-highlight`))
}

func TestViewer_ReloadKeepsQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("one fish"), 0644))

	var anchors []string
	v := newViewer(t, WithScroller(search.ScrollFunc(func(a string) { anchors = append(anchors, a) })))
	require.NoError(t, v.Open(ctx, path))
	_, err := v.Search(ctx, "fish")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("red fish blue fish"), 0644))
	require.NoError(t, v.Reload(ctx, path))

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fish", snap.Query)
	assert.Equal(t, 2, snap.MatchCount)
	assert.Equal(t, []string{"search-match-0", "search-match-0"}, anchors)
}

func TestViewer_StaleStagesDiscarded(t *testing.T) {
	ctx := context.Background()
	scrolls := 0
	v := newViewer(t,
		WithKeepQueryOnOpen(true),
		WithScroller(search.ScrollFunc(func(string) { scrolls++ })),
	)
	require.NoError(t, v.Deliver(ctx, file("a.md", "x")))
	_, err := v.Search(ctx, "x")
	require.NoError(t, err)
	scrolls = 0

	err = v.queue.Do(ctx, "burst", func(context.Context) error {
		if err := v.load(file("b.md", "x x"), true); err != nil {
			return err
		}
		return v.load(file("c.md", "x x x"), true)
	})
	require.NoError(t, err)

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c.md", snap.FileName)
	assert.Equal(t, 3, snap.MatchCount)
	assert.Equal(t, 1, scrolls)
}

func TestViewer_OpenFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t)
	require.NoError(t, v.Deliver(ctx, file("a.md", "kept")))

	err := v.Open(ctx, filepath.Join(t.TempDir(), "missing.md"))

	var readErr *bridge.FileReadError
	require.True(t, errors.As(err, &readErr))
	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.md", snap.FileName)
	assert.Contains(t, snap.HTML, "kept")
}

func TestViewer_Commands(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t, WithAbout(models.About{Name: "kagami", Version: "test"}))

	for _, name := range []string{"zoom-in", "zoom-in", "zoom-out", "zoom-in", "show-about", "toggle-theme"} {
		ev, err := bridge.ParseCommand(name)
		require.NoError(t, err)
		require.NoError(t, v.Handle(ctx, ev))
	}

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.2, snap.Zoom)
	assert.Equal(t, "light", snap.Theme)
	assert.True(t, snap.AboutVisible)
	assert.Equal(t, "test", snap.About.Version)

	require.NoError(t, v.DismissAbout(ctx))
	require.NoError(t, v.Handle(ctx, bridge.ZoomReset{}))
	require.NoError(t, v.ToggleTheme(ctx))
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.AboutVisible)
	assert.Equal(t, 1.0, snap.Zoom)
	assert.Equal(t, "dark", snap.Theme)
}

func TestViewer_CloseSearch(t *testing.T) {
	ctx := context.Background()
	v := newViewer(t)
	require.NoError(t, v.Deliver(ctx, file("a.md", "abc abc")))
	before, err := v.Snapshot(ctx)
	require.NoError(t, err)
	_, err = v.Search(ctx, "abc")
	require.NoError(t, err)
	_, err = v.Previous(ctx)
	require.NoError(t, err)

	st, err := v.CloseSearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, st.ActiveIndex)
	after, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.HTML, after.HTML)
}

func TestViewer_SearchWithoutDocument(t *testing.T) {
	v := newViewer(t)
	st, err := v.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 0, st.MatchCount)
	assert.Equal(t, -1, st.ActiveIndex)
}

func TestViewer_OnLoad(t *testing.T) {
	ctx := context.Background()
	var loaded []string
	v := newViewer(t, WithOnLoad(func(doc *models.Document) { loaded = append(loaded, doc.FileName) }))

	require.NoError(t, v.Deliver(ctx, file("a.md", "a")))
	require.NoError(t, v.Deliver(ctx, file("b.md", "b")))

	assert.Equal(t, []string{"a.md", "b.md"}, loaded)
}
