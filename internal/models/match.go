package models

import (
	"strconv"
	"strings"
)

// NodePath is the child-index path from the content root to a node.
// Example: [0, 2, 1] means root -> child[0] -> child[2] -> child[1].
type NodePath []int

// String returns the path as dot-separated indices, usable as a map key.
func (p NodePath) String() string {
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// Clone returns a copy of p that does not share its backing array.
func (p NodePath) Clone() NodePath {
	return append(NodePath(nil), p...)
}

// Match is one occurrence of the query inside a text node.
// Offset and Length are byte offsets into the node's unescaped text.
type Match struct {
	Path   NodePath `json:"path"`
	Offset int      `json:"offset"`
	Length int      `json:"length"`
	Text   string   `json:"text"`
}

// End returns the byte offset just past the match.
func (m Match) End() int {
	return m.Offset + m.Length
}

// MatchList is ordered by document order: depth-first, left to right.
type MatchList []Match

// Equal reports whether l and other hold the same matches in the same order.
func (l MatchList) Equal(other MatchList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		a, b := l[i], other[i]
		if a.Offset != b.Offset || a.Length != b.Length || a.Text != b.Text || a.Path.String() != b.Path.String() {
			return false
		}
	}
	return true
}
