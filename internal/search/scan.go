package search

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/hyperjump/kagami/internal/models"
)

// NormalizeQuery trims surrounding whitespace. An empty result means "no search".
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}

// Scan returns every case-insensitive, literal, non-overlapping occurrence of query
// in the searchable text of root, in document order. Whitespace-only queries and
// nil roots yield an empty list.
func Scan(root *html.Node, query string) models.MatchList {
	needle := foldRunes(NormalizeQuery(query))
	if len(needle) == 0 || root == nil {
		return nil
	}
	var matches models.MatchList
	for path, node := range TextNodes(root) {
		for _, r := range findAll(node.Data, needle) {
			matches = append(matches, models.Match{
				Path:   path,
				Offset: r[0],
				Length: r[1] - r[0],
				Text:   node.Data[r[0]:r[1]],
			})
		}
	}
	return matches
}

// findAll returns the byte ranges of the folded needle inside text, scanning left to
// right and resuming after each hit so ranges never overlap. Comparison happens on
// case-folded runes, so the byte length of a hit may differ from the needle's.
func findAll(text string, needle []rune) [][2]int {
	if len(needle) == 0 || len(text) == 0 {
		return nil
	}
	runes := make([]rune, 0, len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		runes = append(runes, fold(r))
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	var out [][2]int
	for i := 0; i+len(needle) <= len(runes); {
		if runesEqual(runes[i:i+len(needle)], needle) {
			out = append(out, [2]int{offsets[i], offsets[i+len(needle)]})
			i += len(needle)
			continue
		}
		i++
	}
	return out
}

func foldRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, fold(r))
	}
	return out
}

// fold maps r to the smallest rune of its simple case-folding orbit, so every case
// variant of a letter (Σ σ ς, K k U+212A) compares equal.
func fold(r rune) rune {
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	return min
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
