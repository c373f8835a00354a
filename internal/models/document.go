// Package models defines core data structures for documents, matches, and viewer snapshots.
package models

import "time"

// Document is the currently opened markdown file together with its rendered HTML.
// RenderedHTML is always the renderer output for RawText; it is empty when rendering failed.
type Document struct {
	ID           string    `json:"id"`
	Revision     string    `json:"revision"`
	Generation   uint64    `json:"generation"`
	Path         string    `json:"path"`
	FileName     string    `json:"file_name"`
	RawText      string    `json:"-"`
	RenderedHTML string    `json:"-"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// Empty reports whether the document has no rendered content.
func (d *Document) Empty() bool {
	return d == nil || d.RenderedHTML == ""
}
