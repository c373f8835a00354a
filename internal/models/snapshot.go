package models

// Snapshot is everything the viewer surface needs to draw itself.
type Snapshot struct {
	FileName     string  `json:"file_name"`
	Path         string  `json:"path"`
	Revision     string  `json:"revision"`
	HTML         string  `json:"html"`
	Query        string  `json:"query"`
	MatchCount   int     `json:"match_count"`
	ActiveIndex  int     `json:"active_index"`
	ActiveAnchor string  `json:"active_anchor,omitempty"`
	Theme        string  `json:"theme"`
	Zoom         float64 `json:"zoom"`
	AboutVisible bool    `json:"about_visible"`
	About        About   `json:"about"`
}

// About is the content of the about dialog.
type About struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Author  string `json:"author,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Status is the summary served by GET /api/v1/status and printed by `kagami status`.
type Status struct {
	FileName       string  `json:"file_name,omitempty"`
	Path           string  `json:"path,omitempty"`
	Revision       string  `json:"revision,omitempty"`
	Query          string  `json:"query,omitempty"`
	MatchCount     int     `json:"match_count"`
	Theme          string  `json:"theme"`
	Zoom           float64 `json:"zoom"`
	DatabasePath   string  `json:"database_path"`
	DiskUsageBytes *int64  `json:"disk_usage_bytes,omitempty"`
}
