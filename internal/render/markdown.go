// Package render converts markdown into HTML with highlighted code blocks.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/pkg/utils"
)

// Renderer converts markdown source into an HTML fragment.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Options controls markdown rendering.
type Options struct {
	// HardWraps turns single newlines inside paragraphs into <br>.
	HardWraps bool
	// UnsafeHTML passes raw HTML in the source through instead of omitting it.
	UnsafeHTML bool
	Logger     *zap.Logger
}

// Markdown is the goldmark-backed Renderer.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown returns a GFM renderer whose code blocks are highlighted by h.
func NewMarkdown(h *Highlighter, opts Options) *Markdown {
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{
			highlighter: h,
			logger:      utils.OrNop(opts.Logger),
		}, 100)),
	}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}
	if opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererOpts...),
		),
	}
}

// Render converts markdown to HTML.
func (m *Markdown) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// codeBlockRenderer replaces goldmark's code block output with highlighter output.
type codeBlockRenderer struct {
	highlighter *Highlighter
	logger      *zap.Logger
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var lang string
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		lang = string(fenced.Language(source))
	}
	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	out, err := r.highlighter.Highlight(code.String(), lang)
	if err != nil {
		r.logger.Warn("highlight failed, rendering plain block", zap.String("lang", lang), zap.Error(err))
		out = plainCodeBlock(code.String(), lang)
	}
	_, _ = w.WriteString(out)
	return ast.WalkSkipChildren, nil
}

func plainCodeBlock(code, lang string) string {
	if lang == "" {
		return "<pre><code>" + html.EscapeString(code) + "</code></pre>\n"
	}
	return `<pre><code class="language-` + html.EscapeString(lang) + `">` + html.EscapeString(code) + "</code></pre>\n"
}
