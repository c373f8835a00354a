// Package cli provides output helpers for the kagami command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/search"
	"github.com/hyperjump/kagami/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one grep-like line per match.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat returns the format named s.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
}

// SearchReport is the result of searching one rendered file.
type SearchReport struct {
	File       string        `json:"file"`
	Query      string        `json:"query"`
	MatchCount int           `json:"match_count"`
	Matches    []MatchReport `json:"matches"`
}

// MatchReport describes one match with its surrounding text.
type MatchReport struct {
	Index   int    `json:"index"`
	Anchor  string `json:"anchor"`
	Path    string `json:"path"`
	Element string `json:"element"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// NewSearchReport builds a report for matches found in root. radius is the number of
// runes of context kept on each side of a match.
func NewSearchReport(file, query string, root *html.Node, matches models.MatchList, radius int) *SearchReport {
	report := &SearchReport{
		File:       file,
		Query:      search.NormalizeQuery(query),
		MatchCount: len(matches),
		Matches:    make([]MatchReport, 0, len(matches)),
	}
	for i, m := range matches {
		mr := MatchReport{
			Index:  i,
			Anchor: search.AnchorID(i),
			Path:   m.Path.String(),
			Text:   m.Text,
		}
		if node := search.NodeAt(root, m.Path); node != nil {
			mr.Context = collapseSpace(utils.Snippet(node.Data, m.Offset, m.End(), radius))
			if node.Parent != nil && node.Parent.Type == html.ElementNode {
				mr.Element = node.Parent.Data
			}
		}
		report.Matches = append(report.Matches, mr)
	}
	return report
}

// WriteSearchReport writes report to w in the given format.
func WriteSearchReport(w io.Writer, report *SearchReport, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case OutputCompact:
		for _, m := range report.Matches {
			fmt.Fprintf(w, "%s:%d:%s: %s\n", report.File, m.Index+1, m.Element, m.Context)
		}
		return nil
	default:
		writeSearchReportText(w, report)
		return nil
	}
}

func writeSearchReportText(w io.Writer, report *SearchReport) {
	noun := "matches"
	if report.MatchCount == 1 {
		noun = "match"
	}
	fmt.Fprintf(w, "\nFound %d %s for %q in %s\n\n", report.MatchCount, noun, report.Query, report.File)
	for _, m := range report.Matches {
		fmt.Fprintf(w, "[%d] <%s> %s\n", m.Index+1, m.Element, utils.Truncate(m.Context, 200))
	}
	if report.MatchCount > 0 {
		fmt.Fprintln(w)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
