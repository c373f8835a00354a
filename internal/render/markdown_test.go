package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(opts Options) *Markdown {
	return NewMarkdown(NewHighlighter(), opts)
}

func TestMarkdown_Render(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "heading gets an id",
			input:    "# Hello World",
			contains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
		{
			name:     "hard wraps",
			opts:     Options{HardWraps: true},
			input:    "line one\nline two",
			contains: []string{"line one<br>"},
		},
		{
			name:     "soft wraps",
			input:    "line one\nline two",
			excludes: []string{"<br>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "gfm strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "raw html omitted by default",
			input:    "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "raw html passed when unsafe",
			opts:     Options{UnsafeHTML: true},
			input:    "<div class=\"note\">hi</div>",
			contains: []string{`<div class="note">hi</div>`},
		},
		{
			name:     "fenced code is highlighted",
			input:    "```go\npackage main\n```",
			contains: []string{`<pre class="chroma">`, "package"},
		},
		{
			name:     "indented code is highlighted",
			input:    "para\n\n    x = 1\n",
			contains: []string{`<pre class="chroma">`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestRenderer(tt.opts).Render(tt.input)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestMarkdown_RenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(Options{HardWraps: true})
	src := "# Title\n\nSome *text*.\n\n```python\nprint('x')\n```\n"
	a, err := r.Render(src)
	require.NoError(t, err)
	b, err := r.Render(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarkdown_EmptyInput(t *testing.T) {
	out, err := newTestRenderer(Options{}).Render("")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestPlainCodeBlock(t *testing.T) {
	assert.Equal(t, "<pre><code>a &lt; b</code></pre>\n", plainCodeBlock("a < b", ""))
	assert.Equal(t, `<pre><code class="language-go">x</code></pre>`+"\n", plainCodeBlock("x", "go"))
}
