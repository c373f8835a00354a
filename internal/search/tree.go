package search

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperjump/kagami/internal/models"
)

// Parse parses a rendered HTML fragment into a tree whose root is a document node
// holding the fragment's top-level nodes.
func Parse(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Render converts a tree produced by Parse (or any transform of it) back to HTML.
func Render(root *html.Node) (string, error) {
	if root == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Clone returns a deep copy of n. The copy has no parent or siblings.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// NodeAt follows path from root. It returns nil when the path does not exist.
func NodeAt(root *html.Node, path models.NodePath) *html.Node {
	current := root
	for _, index := range path {
		if current == nil {
			return nil
		}
		current = childAt(current, index)
	}
	return current
}

func childAt(parent *html.Node, index int) *html.Node {
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if i == index {
			return c
		}
		i++
	}
	return nil
}

// excludedElements never have their text searched: code keeps its highlighting
// spans intact, and the rest hold no visible prose.
var excludedElements = map[atom.Atom]bool{
	atom.Pre:      true,
	atom.Code:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Textarea: true,
}

func excluded(n *html.Node) bool {
	return n.Type == html.ElementNode && excludedElements[n.DataAtom]
}

// TextNodes lazily yields every searchable text node under root in depth-first,
// left-to-right order together with its path. Subtrees of pre, code, script,
// style and textarea elements are skipped.
func TextNodes(root *html.Node) iter.Seq2[models.NodePath, *html.Node] {
	return func(yield func(models.NodePath, *html.Node) bool) {
		if root != nil {
			walkText(root, nil, yield)
		}
	}
}

func walkText(n *html.Node, path models.NodePath, yield func(models.NodePath, *html.Node) bool) bool {
	for c, i := n.FirstChild, 0; c != nil; c, i = c.NextSibling, i+1 {
		childPath := append(path[:len(path):len(path)], i)
		switch c.Type {
		case html.TextNode:
			if !yield(childPath, c) {
				return false
			}
		case html.ElementNode:
			if excluded(c) {
				continue
			}
			if !walkText(c, childPath, yield) {
				return false
			}
		}
	}
	return true
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}
