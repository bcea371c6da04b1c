package types

import "time"

// HistoryEntry is a single visited page.
type HistoryEntry struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

// Time returns the visit time.
func (h HistoryEntry) Time() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// Bookmark is a named link inside a bookmark category.
type Bookmark struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// WindowSize is the last known top-level window geometry.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Download is a tracked file transfer. The transfer itself is done by the engine.
type Download struct {
	ID            string
	Path          string
	SourceURL     string
	StartTime     time.Time
	BytesReceived int64
	BytesTotal    int64
	Done          bool
	Failed        bool
}

// Percent returns the progress in whole percent, or -1 if the total is unknown.
func (d Download) Percent() int {
	if d.BytesTotal <= 0 {
		return -1
	}
	return int(d.BytesReceived * 100 / d.BytesTotal)
}

// TabInfo is a read-only view of a tab session.
type TabInfo struct {
	ID           string
	URL          string
	Title        string
	DisplayTitle string
	Tooltip      string
	Private      bool
	Suspended    bool
	Active       bool
}

// WindowInfo is a read-only view of a window and its tabs.
type WindowInfo struct {
	ID          string
	Private     bool
	ActiveIndex int
	AddressBar  string
	Status      string
	Tabs        []TabInfo
}

// Profile represents a Firefox profile (import source).
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// ImportedTab is a tab read from another browser's session file.
type ImportedTab struct {
	URL   string
	Title string
}

// ImportedWindow is a window read from another browser's session file.
type ImportedWindow struct {
	Tabs     []ImportedTab
	Selected int // index of the selected tab
}
