package render

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter turns source code into class-annotated HTML using chroma.
// Colors come from the stylesheet returned by CSS, so one rendering serves both themes.
type Highlighter struct {
	formatter *chromahtml.Formatter
}

// HighlighterOption configures a Highlighter.
type HighlighterOption func(*highlighterOptions)

type highlighterOptions struct {
	lineNumbers bool
}

// WithLineNumbers adds line numbers to highlighted blocks.
func WithLineNumbers(enabled bool) HighlighterOption {
	return func(o *highlighterOptions) { o.lineNumbers = enabled }
}

// NewHighlighter returns a Highlighter that emits CSS classes instead of inline styles.
func NewHighlighter(opts ...HighlighterOption) *Highlighter {
	var o highlighterOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Highlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.WithLineNumbers(o.lineNumbers),
		),
	}
}

// Highlight renders code as HTML. lang is a hint; when it is empty or unknown the
// language is detected from the code, and plain text is the last resort.
func (h *Highlighter) Highlight(code, lang string) (string, error) {
	lexer := Lexer(code, lang)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", lexer.Config().Name, err)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, styles.Fallback, iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", lexer.Config().Name, err)
	}
	return buf.String(), nil
}

// CSS returns the stylesheet for the named chroma style. Unknown names fall back
// to chroma's default style.
func (h *Highlighter) CSS(styleName string) (string, error) {
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, styles.Get(styleName)); err != nil {
		return "", fmt.Errorf("write css for %s: %w", styleName, err)
	}
	return buf.String(), nil
}

// Lexer picks the lexer for lang, falling back to content analysis and then plain text.
func Lexer(code, lang string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
