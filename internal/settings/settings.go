package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/navigate"
	"github.com/lotas/tabhost/internal/types"
)

// Default values for a fresh settings document.
const (
	DefaultHomepage     = "https://www.google.com"
	DefaultSearchEngine = "https://www.google.com/search?q=" + navigate.QueryToken
	DefaultCategory     = "Search Engines"
)

var (
	ErrCategoryNotFound  = errors.New("bookmark category not found")
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrDuplicateBookmark = errors.New("bookmark already exists in category")
	ErrInvalidCategory   = errors.New("invalid bookmark category")
)

// Settings is the persisted per-user document.
type Settings struct {
	Homepage         string               `json:"homepage"`
	SearchEngine     string               `json:"search_engine"`
	DownloadLocation string               `json:"download_location"`
	DarkMode         bool                 `json:"dark_mode"`
	ZoomLevel        float64              `json:"zoom_level"`
	Bookmarks        *BookmarkTree        `json:"bookmarks"`
	History          []types.HistoryEntry `json:"history"`
	WindowSize       types.WindowSize     `json:"window_size"`
	Features         map[string]bool      `json:"features"`
	Extensions       []string             `json:"extensions"`
}

// Defaults returns a fresh document. downloadDir becomes the download location.
func Defaults(downloadDir string) Settings {
	tree := NewBookmarkTree()
	tree.Append(DefaultCategory, types.Bookmark{Name: "Google", URL: "https://www.google.com"})
	tree.Append(DefaultCategory, types.Bookmark{Name: "Bing", URL: "https://www.bing.com"})
	return Settings{
		Homepage:         DefaultHomepage,
		SearchEngine:     DefaultSearchEngine,
		DownloadLocation: downloadDir,
		ZoomLevel:        1.0,
		Bookmarks:        tree,
		History:          []types.HistoryEntry{},
		WindowSize:       types.WindowSize{Width: 1400, Height: 900},
		Features:         map[string]bool{},
		Extensions:       []string{},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	c := s
	if s.Bookmarks != nil {
		c.Bookmarks = s.Bookmarks.Clone()
	}
	c.History = append([]types.HistoryEntry{}, s.History...)
	c.Features = make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		c.Features[k] = v
	}
	c.Extensions = append([]string{}, s.Extensions...)
	return c
}

// normalize fills values that decoded as empty or null with defaults.
func (s *Settings) normalize(def Settings) {
	if s.Homepage == "" {
		s.Homepage = def.Homepage
	}
	if s.SearchEngine == "" {
		s.SearchEngine = def.SearchEngine
	}
	if s.DownloadLocation == "" {
		s.DownloadLocation = def.DownloadLocation
	}
	if s.ZoomLevel <= 0 {
		s.ZoomLevel = def.ZoomLevel
	}
	if s.Bookmarks == nil {
		s.Bookmarks = NewBookmarkTree()
	}
	if s.History == nil {
		s.History = []types.HistoryEntry{}
	}
	s.History = truncateHistory(s.History, MaxHistory)
	if s.Features == nil {
		s.Features = map[string]bool{}
	}
	if s.Extensions == nil {
		s.Extensions = []string{}
	}
}

// Encode serializes the document. Output is stable for equal documents.
func Encode(s Settings) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a document on top of the defaults. Unknown keys are ignored
// and missing keys keep their default value.
func Decode(data []byte, def Settings) (Settings, error) {
	s := def.Clone()
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return def, err
	}
	s.normalize(def)
	return s, nil
}

// Store owns the settings document on disk.
type Store struct {
	mu          sync.Mutex
	path        string
	downloadDir string
	now         func() time.Time
	current     Settings
}

// NewStore creates a store for path and loads it.
func NewStore(path, downloadDir string) *Store {
	st := &Store{path: path, downloadDir: downloadDir, now: time.Now}
	st.Load()
	return st
}

// SetClock replaces the time source used for history timestamps.
func (st *Store) SetClock(now func() time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.now = now
}

// Path returns the settings file path.
func (st *Store) Path() string {
	return st.path
}

// Load reads the document from disk. A missing, unreadable or malformed
// file is replaced by defaults, which are written back. Load never fails.
func (st *Store) Load() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()

	def := Defaults(st.downloadDir)
	data, err := os.ReadFile(st.path)
	if err == nil {
		s, derr := Decode(data, def)
		if derr == nil {
			st.current = s
			return s.Clone()
		}
		err = derr
	}

	if errors.Is(err, os.ErrNotExist) {
		applog.Info("settings.created", "path", st.path)
	} else {
		applog.Error("settings.corrupt", err, "path", st.path)
	}
	st.current = def
	if werr := st.writeLocked(def); werr != nil {
		applog.Error("settings.save", werr, "path", st.path)
	}
	return def.Clone()
}

// Save replaces the document and writes it to disk.
func (st *Store) Save(s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s = s.Clone()
	s.normalize(Defaults(st.downloadDir))
	st.current = s
	return st.writeLocked(s)
}

// Current returns a copy of the in-memory document.
func (st *Store) Current() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.Clone()
}

// writeLocked writes to a temp file in the same directory and renames it
// over the target so a crash never leaves a truncated document.
func (st *Store) writeLocked(s Settings) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}

// mutate applies fn to the current document and persists it.
func (st *Store) mutate(event string, fn func(s *Settings) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	st.current = next
	if err := st.writeLocked(next); err != nil {
		applog.Error(event, err, "path", st.path)
		return err
	}
	return nil
}

// AppendHistory records a visit with the current time, keeps only the most
// recent MaxHistory entries and saves.
func (st *Store) AppendHistory(url, title string) error {
	return st.mutate("settings.history.save", func(s *Settings) error {
		e := types.HistoryEntry{URL: url, Title: title, Timestamp: st.now().Unix()}
		s.History = appendHistory(s.History, e, MaxHistory)
		return nil
	})
}

// RecentHistory returns up to n entries, newest first. n <= 0 returns all.
func (st *Store) RecentHistory(n int) []types.HistoryEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	return recent(st.current.History, n)
}

// HistoryLen returns the number of stored history entries.
func (st *Store) HistoryLen() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.current.History)
}

// ClearHistory removes all history entries.
func (st *Store) ClearHistory() error {
	return st.mutate("settings.history.clear", func(s *Settings) error {
		s.History = []types.HistoryEntry{}
		return nil
	})
}

// AddBookmark appends a bookmark, creating the category when missing.
// A URL already present in the category is rejected.
func (st *Store) AddBookmark(category, name, url string) error {
	if category == "" {
		return ErrInvalidCategory
	}
	return st.mutate("settings.bookmarks.save", func(s *Settings) error {
		canon := navigate.CanonicalURL(url)
		for _, b := range s.Bookmarks.Get(category) {
			if navigate.CanonicalURL(b.URL) == canon {
				return fmt.Errorf("%w: %s", ErrDuplicateBookmark, url)
			}
		}
		if name == "" {
			name = url
		}
		s.Bookmarks.Append(category, types.Bookmark{Name: name, URL: url})
		return nil
	})
}

// RemoveBookmark deletes the first bookmark in category with the given URL.
func (st *Store) RemoveBookmark(category, url string) error {
	return st.mutate("settings.bookmarks.save", func(s *Settings) error {
		if !s.Bookmarks.Has(category) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		canon := navigate.CanonicalURL(url)
		for i, b := range s.Bookmarks.Get(category) {
			if navigate.CanonicalURL(b.URL) == canon {
				s.Bookmarks.RemoveAt(category, i)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrBookmarkNotFound, url)
	})
}

// RemoveCategory deletes a whole bookmark category.
func (st *Store) RemoveCategory(category string) error {
	return st.mutate("settings.bookmarks.save", func(s *Settings) error {
		if !s.Bookmarks.RemoveCategory(category) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		return nil
	})
}

// MergeBookmarks adds every bookmark from tree that is not already present.
// It returns the number of bookmarks added.
func (st *Store) MergeBookmarks(tree *BookmarkTree) (int, error) {
	added := 0
	err := st.mutate("settings.bookmarks.save", func(s *Settings) error {
		for _, cat := range tree.Categories() {
			seen := make(map[string]bool)
			for _, b := range s.Bookmarks.Get(cat) {
				seen[navigate.CanonicalURL(b.URL)] = true
			}
			for _, b := range tree.Get(cat) {
				canon := navigate.CanonicalURL(b.URL)
				if seen[canon] {
					continue
				}
				seen[canon] = true
				s.Bookmarks.Append(cat, b)
				added++
			}
		}
		return nil
	})
	return added, err
}

// Categories returns bookmark categories in order.
func (st *Store) Categories() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.Bookmarks.Categories()
}

// Bookmarks returns the bookmarks in a category.
func (st *Store) Bookmarks(category string) ([]types.Bookmark, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.current.Bookmarks.Has(category) {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	return st.current.Bookmarks.Get(category), nil
}

// SetHomepage changes the homepage.
func (st *Store) SetHomepage(url string) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.Homepage = url
		return nil
	})
}

// SetSearchEngine changes the search template.
func (st *Store) SetSearchEngine(template string) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.SearchEngine = template
		return nil
	})
}

// SetDarkMode toggles the dark theme flag.
func (st *Store) SetDarkMode(on bool) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.DarkMode = on
		return nil
	})
}

// Zoom limits.
const (
	MinZoom = 0.3
	MaxZoom = 3.0
)

// SetZoomLevel stores the page zoom, clamped to [MinZoom, MaxZoom].
func (st *Store) SetZoomLevel(level float64) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.ZoomLevel = ClampZoom(level)
		return nil
	})
}

// ClampZoom bounds level to the supported zoom range.
func ClampZoom(level float64) float64 {
	switch {
	case level < MinZoom:
		return MinZoom
	case level > MaxZoom:
		return MaxZoom
	}
	return level
}

// SetWindowSize records the last window geometry.
func (st *Store) SetWindowSize(size types.WindowSize) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.WindowSize = size
		return nil
	})
}

// SetFeature sets a feature flag.
func (st *Store) SetFeature(name string, on bool) error {
	return st.mutate("settings.save", func(s *Settings) error {
		s.Features[name] = on
		return nil
	})
}

// Homepage returns the configured homepage.
func (st *Store) Homepage() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.Homepage
}

// SearchEngine returns the configured search template.
func (st *Store) SearchEngine() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.SearchEngine
}

// ZoomLevel returns the page zoom factor.
func (st *Store) ZoomLevel() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.ZoomLevel
}

// DarkMode reports whether the dark theme is on.
func (st *Store) DarkMode() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.DarkMode
}

// DownloadLocation returns the configured download directory.
func (st *Store) DownloadLocation() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.DownloadLocation
}
