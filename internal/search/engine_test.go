package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloHTML = "<p>Hello world. Hello again.</p>\n"

func newLoadedEngine(t *testing.T, rendered string, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(opts...)
	require.NoError(t, e.SetContent(1, rendered))
	return e
}

func TestEngine_SearchFindsMatches(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)

	st := e.Search("hello")

	assert.Equal(t, 2, st.MatchCount)
	assert.Equal(t, 0, st.ActiveIndex)
	assert.Equal(t, "search-match-0", st.ActiveAnchor)
	assert.Equal(t, uint64(1), st.Generation)
	matches := e.Matches()
	require.Len(t, matches, 2)
	assert.Less(t, matches[0].Offset, matches[1].Offset)
	assert.Contains(t, e.HTML(), `class="search-highlight search-highlight-active" id="search-match-0"`)
}

func TestEngine_EmptyQueryRemovesOverlay(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)
	e.Search("hello")

	st := e.Search("  ")

	assert.Equal(t, 0, st.MatchCount)
	assert.Equal(t, -1, st.ActiveIndex)
	assert.Empty(t, st.ActiveAnchor)
	assert.Equal(t, helloHTML, e.HTML())
	assert.NotContains(t, e.HTML(), "<mark")
}

func TestEngine_NoMatches(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)

	st := e.Search("absent")

	assert.Equal(t, "absent", st.Query)
	assert.Equal(t, 0, st.MatchCount)
	assert.Equal(t, -1, st.ActiveIndex)
	assert.Equal(t, helloHTML, e.HTML())
}

func TestEngine_NextWraps(t *testing.T) {
	e := newLoadedEngine(t, "<p>a a a</p>")
	e.Search("a")

	assert.Equal(t, 1, e.Next().ActiveIndex)
	assert.Equal(t, 2, e.Next().ActiveIndex)
	assert.Equal(t, 0, e.Next().ActiveIndex)
	assert.Contains(t, e.HTML(), `class="search-highlight search-highlight-active" id="search-match-0"`)
}

func TestEngine_PreviousWraps(t *testing.T) {
	e := newLoadedEngine(t, "<p>a a a</p>")
	e.Search("a")

	assert.Equal(t, 2, e.Previous().ActiveIndex)
	assert.Equal(t, 1, e.Previous().ActiveIndex)
	assert.Equal(t, 0, e.Previous().ActiveIndex)
	assert.Equal(t, 1, strings.Count(e.HTML(), ActiveClass))
}

func TestEngine_CircularNavigation(t *testing.T) {
	e := newLoadedEngine(t, "<p>x</p><p>x <b>x</b></p><ul><li>x</li><li>x</li></ul>")
	st := e.Search("x")
	require.Equal(t, 5, st.MatchCount)

	for start := 0; start < st.MatchCount; start++ {
		for e.State().ActiveIndex != start {
			e.Next()
		}
		for i := 0; i < st.MatchCount; i++ {
			e.Next()
		}
		assert.Equal(t, start, e.State().ActiveIndex)
		for i := 0; i < st.MatchCount; i++ {
			e.Previous()
		}
		assert.Equal(t, start, e.State().ActiveIndex)
	}
}

func TestEngine_NavigationOnEmptyList(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)

	assert.Equal(t, -1, e.Next().ActiveIndex)
	assert.Equal(t, -1, e.Previous().ActiveIndex)
	assert.Equal(t, helloHTML, e.HTML())
}

func TestEngine_ClearRestoresContent(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)
	e.Search("hello")
	e.Next()

	st := e.Clear()

	assert.Empty(t, st.Query)
	assert.Equal(t, 0, st.MatchCount)
	assert.Equal(t, -1, st.ActiveIndex)
	assert.Equal(t, helloHTML, e.HTML())
	assert.Empty(t, e.Matches())
}

func TestEngine_SetContentKeepsQuery(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)
	e.Search("hello")

	require.NoError(t, e.SetContent(2, "<p>hello hello hello</p>"))
	st := e.State()
	assert.Equal(t, "hello", st.Query)
	assert.Equal(t, 0, st.MatchCount)
	assert.Equal(t, -1, st.ActiveIndex)
	assert.Equal(t, "<p>hello hello hello</p>", e.HTML())

	st = e.Rescan()
	assert.Equal(t, 3, st.MatchCount)
	assert.Equal(t, 0, st.ActiveIndex)
	assert.Equal(t, uint64(2), st.Generation)
}

func TestEngine_StaleContent(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)
	require.NoError(t, e.SetContent(3, "<p>three</p>"))

	err := e.SetContent(2, "<p>two</p>")

	assert.ErrorIs(t, err, ErrStaleContent)
	assert.Equal(t, "<p>three</p>", e.HTML())
	assert.Equal(t, uint64(3), e.Generation())
}

func TestEngine_InvalidateKeepsQuery(t *testing.T) {
	e := newLoadedEngine(t, helloHTML)
	e.Search("world")

	e.Invalidate()

	assert.Equal(t, "world", e.State().Query)
	assert.Equal(t, helloHTML, e.HTML())
	assert.Equal(t, 1, e.Rescan().MatchCount)
}

func TestEngine_Scroller(t *testing.T) {
	var anchors []string
	e := newLoadedEngine(t, "<p>b b</p>", WithScroller(ScrollFunc(func(a string) {
		anchors = append(anchors, a)
	})))

	e.Search("b")
	e.Next()
	e.Previous()
	e.ScrollToActive()
	e.Search("zzz")
	e.ScrollToActive()

	assert.Equal(t, []string{"search-match-0", "search-match-1", "search-match-0", "search-match-0"}, anchors)
}

func TestEngine_SkipsCodeBlocks(t *testing.T) {
	e := newLoadedEngine(t, `<p>Use fmt.</p><pre><code class="language-go"><span class="kn">fmt</span>.Println()</code></pre>`)

	st := e.Search("fmt")

	assert.Equal(t, 1, st.MatchCount)
	assert.Contains(t, e.HTML(), `<span class="kn">fmt</span>.Println()`)
}

func TestEngine_Invariants(t *testing.T) {
	e := newLoadedEngine(t, "<h2>Alpha beta</h2><p>beta gamma <em>Beta</em></p><pre>beta</pre>")

	for _, q := range []string{"", " ", "beta", "BETA", "alpha", "a", "missing", "e"} {
		st := e.Search(q)
		assert.Equal(t, len(e.Matches()), st.MatchCount, q)
		if st.MatchCount > 0 {
			assert.GreaterOrEqual(t, st.ActiveIndex, 0, q)
			assert.Less(t, st.ActiveIndex, st.MatchCount, q)
			assert.Equal(t, st.MatchCount, strings.Count(e.HTML(), `<mark class="search-highlight`), q)
			assert.Equal(t, 1, strings.Count(e.HTML(), ActiveClass), q)
		} else {
			assert.Equal(t, -1, st.ActiveIndex, q)
			assert.NotContains(t, e.HTML(), "<mark", q)
		}
	}
}

func BenchmarkEngine_Search(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("<h2>Section</h2><p>Lorem ipsum dolor sit amet, <em>consectetur</em> adipiscing elit.</p>")
		sb.WriteString("<pre><code>lorem := ipsum()</code></pre>")
	}
	e := NewEngine()
	if err := e.SetContent(1, sb.String()); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Search("lorem")
		e.Next()
	}
}

func TestEngine_SearchClearSearch(t *testing.T) {
	e := newLoadedEngine(t, "<p>one <em>two</em> one</p><p>TWO two</p>")

	e.Search("two")
	first := e.Matches()
	firstHTML := e.HTML()
	e.Next()
	e.Clear()
	e.Search("two")

	assert.True(t, first.Equal(e.Matches()))
	assert.Equal(t, firstHTML, e.HTML())
}

func TestEngine_RescanDoesNotScroll(t *testing.T) {
	calls := 0
	e := newLoadedEngine(t, "<p>b</p>", WithScroller(ScrollFunc(func(string) { calls++ })))
	e.Search("b")
	require.NoError(t, e.SetContent(2, "<p>b b</p>"))

	st := e.Rescan()

	assert.Equal(t, 2, st.MatchCount)
	assert.Equal(t, 1, calls)
	e.ScrollToActive()
	assert.Equal(t, 2, calls)
}
