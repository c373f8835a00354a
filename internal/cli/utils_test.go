package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kagami/internal/search"
)

func buildReport(t *testing.T, fragment, query string, radius int) *SearchReport {
	t.Helper()
	root, err := search.Parse(fragment)
	if err != nil {
		t.Fatal(err)
	}
	return NewSearchReport("notes.md", query, root, search.Scan(root, query), radius)
}

func TestNewSearchReport(t *testing.T) {
	report := buildReport(t, "<h1>Intro</h1><p>The intro text\nspans lines.</p>", " intro ", 6)

	if report.Query != "intro" || report.MatchCount != 2 {
		t.Fatalf("got query=%q count=%d", report.Query, report.MatchCount)
	}
	first, second := report.Matches[0], report.Matches[1]
	if first.Element != "h1" || first.Anchor != "search-match-0" || first.Text != "Intro" {
		t.Errorf("first match: %+v", first)
	}
	if second.Element != "p" || second.Path != "1.0" {
		t.Errorf("second match: %+v", second)
	}
	if second.Context != "The intro text ..." {
		t.Errorf("context = %q", second.Context)
	}
}

func TestWriteSearchReport_JSON(t *testing.T) {
	report := buildReport(t, "<p>alpha beta alpha</p>", "alpha", 3)
	var buf bytes.Buffer
	if err := WriteSearchReport(&buf, report, OutputJSON); err != nil {
		t.Fatalf("WriteSearchReport(json): %v", err)
	}
	var decoded SearchReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.MatchCount != 2 || len(decoded.Matches) != 2 || decoded.Matches[1].Index != 1 {
		t.Errorf("decoded report: %+v", decoded)
	}
}

func TestWriteSearchReport_Compact(t *testing.T) {
	report := buildReport(t, "<ul><li>one</li><li>two one</li></ul>", "one", 2)
	var buf bytes.Buffer
	if err := WriteSearchReport(&buf, report, OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "notes.md:1:li: one" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "notes.md:2:li: ...o one" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestWriteSearchReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchReport(&buf, buildReport(t, "<p>nothing here</p>", "absent", 3), OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `Found 0 matches for "absent" in notes.md`) {
		t.Errorf("text output: %q", buf.String())
	}

	buf.Reset()
	_ = WriteSearchReport(&buf, buildReport(t, "<p>one hit</p>", "hit", 3), OutputText)
	if !strings.Contains(buf.String(), "Found 1 match ") || !strings.Contains(buf.String(), "[1] <p>") {
		t.Errorf("text output: %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "compact", "json"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}
