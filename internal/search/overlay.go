package search

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperjump/kagami/internal/models"
)

const (
	// MarkerClass tags every highlight marker.
	MarkerClass = "search-highlight"
	// ActiveClass is added to the marker of the active match.
	ActiveClass = "search-highlight-active"
	// IndexAttr holds a marker's global match index.
	IndexAttr = "data-match-index"

	anchorPrefix = "search-match-"
)

// AnchorID returns the element id of the marker for match index i.
func AnchorID(i int) string {
	return anchorPrefix + strconv.Itoa(i)
}

type indexedMatch struct {
	models.Match
	index int
}

// Overlay returns a copy of root in which every match is wrapped in a marker
// element. root itself is never modified. Matches that no longer fit their text
// node, or that overlap a later match in the same node, are skipped.
func Overlay(root *html.Node, matches models.MatchList, active int) *html.Node {
	out := Clone(root)
	if out == nil || len(matches) == 0 {
		return out
	}

	groups := make(map[string][]indexedMatch)
	var order []string
	for i, m := range matches {
		key := m.Path.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], indexedMatch{Match: m, index: i})
	}

	// Resolve every target before substituting: substitution shifts sibling indices.
	targets := make([]*html.Node, len(order))
	for i, key := range order {
		targets[i] = NodeAt(out, groups[key][0].Path)
	}
	for i, key := range order {
		node := targets[i]
		if node == nil || node.Type != html.TextNode || node.Parent == nil {
			continue
		}
		substitute(node, splitRuns(node.Data, groups[key], active))
	}
	return out
}

// splitRuns builds the replacement sequence for one text node, walking matches by
// descending offset so earlier offsets stay valid while the tail is consumed.
func splitRuns(text string, group []indexedMatch, active int) []*html.Node {
	sorted := append([]indexedMatch(nil), group...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset > sorted[j].Offset })

	var runs []*html.Node
	last := len(text)
	for _, m := range sorted {
		if m.Offset < 0 || m.Length <= 0 || m.End() > last {
			continue
		}
		if last > m.End() {
			runs = append(runs, textNode(text[m.End():last]))
		}
		runs = append(runs, marker(text[m.Offset:m.End()], m.index, m.index == active))
		last = m.Offset
	}
	if last > 0 {
		runs = append(runs, textNode(text[:last]))
	}
	// Built back to front.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs
}

// substitute replaces node with runs in its parent.
func substitute(node *html.Node, runs []*html.Node) {
	parent := node.Parent
	for _, r := range runs {
		parent.InsertBefore(r, node)
	}
	parent.RemoveChild(node)
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func marker(text string, index int, active bool) *html.Node {
	class := MarkerClass
	if active {
		class += " " + ActiveClass
	}
	m := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Mark,
		Data:     "mark",
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: "id", Val: AnchorID(index)},
			{Key: IndexAttr, Val: strconv.Itoa(index)},
		},
	}
	m.AppendChild(textNode(text))
	return m
}

// IsMarker reports whether n is a highlight marker element.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Mark {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == MarkerClass {
					return true
				}
			}
		}
	}
	return false
}

// Markers returns the marker elements under root in document order.
func Markers(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if IsMarker(c) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Strip returns a copy of root with every marker replaced by its text and adjacent
// text runs merged, which undoes Overlay.
func Strip(root *html.Node) *html.Node {
	out := Clone(root)
	if out == nil {
		return nil
	}
	for _, m := range Markers(out) {
		substitute(m, []*html.Node{textNode(TextContent(m))})
	}
	Normalize(out)
	return out
}

// Normalize merges adjacent text nodes and drops empty ones throughout n, in place.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			n.RemoveChild(c)
		case c.Type == html.TextNode && next != nil && next.Type == html.TextNode:
			c.Data += next.Data
			n.RemoveChild(next)
			continue
		case c.Type == html.ElementNode:
			Normalize(c)
		}
		c = next
	}
}
