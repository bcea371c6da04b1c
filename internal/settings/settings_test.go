package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotas/tabhost/internal/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	return NewStore(path, "/tmp/downloads"), path
}

func TestLoadMissingWritesDefaults(t *testing.T) {
	st, path := newTestStore(t)

	s := st.Current()
	assert.Equal(t, DefaultHomepage, s.Homepage)
	assert.Equal(t, DefaultSearchEngine, s.SearchEngine)
	assert.Equal(t, "/tmp/downloads", s.DownloadLocation)
	assert.Equal(t, []string{DefaultCategory}, s.Bookmarks.Categories())
	assert.Empty(t, s.History)

	_, err := os.Stat(path)
	require.NoError(t, err, "defaults should be written back")
}

func TestLoadCorruptSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	st := NewStore(path, "/dl")
	assert.Equal(t, DefaultHomepage, st.Homepage())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = Decode(data, Defaults("/dl"))
	assert.NoError(t, err, "corrupt file should be replaced by valid defaults")
}

func TestLoadWrongTypeSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"homepage": 5}`), 0o644))

	st := NewStore(path, "/dl")
	assert.Equal(t, DefaultHomepage, st.Homepage())
}

func TestLoadMissingAndUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"homepage": "https://example.org", "toolbar_color": "red"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	st := NewStore(path, "/dl")
	s := st.Current()
	assert.Equal(t, "https://example.org", s.Homepage)
	assert.Equal(t, DefaultSearchEngine, s.SearchEngine)
	assert.Equal(t, 1.0, s.ZoomLevel)
	assert.NotNil(t, s.Features)
}

func TestSaveLoadIsStable(t *testing.T) {
	st, path := newTestStore(t)
	require.NoError(t, st.AddBookmark("Work", "Docs", "https://go.dev/doc"))
	require.NoError(t, st.AppendHistory("https://openai.com", "OpenAI"))

	require.NoError(t, st.Save(st.Load()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(st.Load()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBookmarkCategoryOrderSurvivesReload(t *testing.T) {
	st, path := newTestStore(t)
	for _, cat := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, st.AddBookmark(cat, cat, "https://"+cat+".example"))
	}

	reloaded := NewStore(path, "/dl")
	assert.Equal(t, []string{DefaultCategory, "Zeta", "Alpha", "Mid"}, reloaded.Categories())
}

func TestAddBookmarkRejectsDuplicate(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.AddBookmark("Work", "Docs", "https://go.dev/doc"))
	err := st.AddBookmark("Work", "Docs again", "https://go.dev/doc/")
	assert.ErrorIs(t, err, ErrDuplicateBookmark)

	list, err := st.Bookmarks("Work")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, st.AddBookmark("", "x", "https://x.example"), ErrInvalidCategory)
}

func TestRemoveBookmark(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.AddBookmark("Work", "Docs", "https://go.dev/doc"))

	assert.ErrorIs(t, st.RemoveBookmark("Nope", "https://go.dev/doc"), ErrCategoryNotFound)
	assert.ErrorIs(t, st.RemoveBookmark("Work", "https://other.example"), ErrBookmarkNotFound)
	require.NoError(t, st.RemoveBookmark("Work", "https://go.dev/doc"))

	list, err := st.Bookmarks("Work")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, st.RemoveCategory("Work"))
	assert.ErrorIs(t, st.RemoveCategory("Work"), ErrCategoryNotFound)
}

func TestMergeBookmarksSkipsExisting(t *testing.T) {
	st, _ := newTestStore(t)
	tree := NewBookmarkTree()
	tree.Append(DefaultCategory, types.Bookmark{Name: "Google", URL: "https://www.google.com"})
	tree.Append("Imported", types.Bookmark{Name: "A", URL: "https://a.example"})
	tree.Append("Imported", types.Bookmark{Name: "A dup", URL: "https://a.example/"})

	n, err := st.MergeBookmarks(tree)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	st, path := newTestStore(t)
	base := time.Unix(1_700_000_000, 0)
	tick := 0
	st.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	for i := 0; i < MaxHistory+1; i++ {
		require.NoError(t, st.AppendHistory(fmt.Sprintf("https://site%d.example", i), ""))
	}

	assert.Equal(t, MaxHistory, st.HistoryLen())
	all := st.RecentHistory(0)
	assert.Equal(t, fmt.Sprintf("https://site%d.example", MaxHistory), all[0].URL)
	assert.Equal(t, "https://site1.example", all[len(all)-1].URL)

	reloaded := NewStore(path, "/dl")
	assert.Equal(t, MaxHistory, reloaded.HistoryLen())
}

func TestLoadTruncatesOversizedHistory(t *testing.T) {
	def := Defaults("/dl")
	for i := 0; i < MaxHistory+20; i++ {
		def.History = append(def.History, types.HistoryEntry{URL: fmt.Sprintf("https://h%d.example", i)})
	}
	data, err := Encode(def)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	st := NewStore(path, "/dl")
	assert.Equal(t, MaxHistory, st.HistoryLen())
	assert.Equal(t, "https://h20.example", st.RecentHistory(0)[MaxHistory-1].URL)
}

func TestRecentHistoryNewestFirst(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.AppendHistory("https://a.example", "A"))
	require.NoError(t, st.AppendHistory("https://b.example", "B"))
	require.NoError(t, st.AppendHistory("https://c.example", "C"))

	got := st.RecentHistory(2)
	require.Len(t, got, 2)
	assert.Equal(t, "https://c.example", got[0].URL)
	assert.Equal(t, "https://b.example", got[1].URL)

	require.NoError(t, st.ClearHistory())
	assert.Zero(t, st.HistoryLen())
}

func TestSetters(t *testing.T) {
	st, path := newTestStore(t)
	require.NoError(t, st.SetHomepage("https://start.example"))
	require.NoError(t, st.SetSearchEngine("https://duckduckgo.com/?q={query}"))
	require.NoError(t, st.SetDarkMode(true))
	require.NoError(t, st.SetFeature("reader", true))
	require.NoError(t, st.SetWindowSize(types.WindowSize{Width: 800, Height: 600}))

	s := NewStore(path, "/dl").Current()
	assert.Equal(t, "https://start.example", s.Homepage)
	assert.Equal(t, "https://duckduckgo.com/?q={query}", s.SearchEngine)
	assert.True(t, s.DarkMode)
	assert.True(t, s.Features["reader"])
	assert.Equal(t, 800, s.WindowSize.Width)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	st, path := newTestStore(t)
	require.NoError(t, st.SetHomepage("https://x.example"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.json", entries[0].Name())
}

func TestSetAndGetByKey(t *testing.T) {
	st, path := newTestStore(t)

	require.NoError(t, st.Set("homepage", "https://start.example"))
	require.NoError(t, st.Set("search-engine", "https://duckduckgo.com/?q=%s"))
	require.NoError(t, st.Set("dark-mode", "on"))
	require.NoError(t, st.Set("zoom", "1.25"))
	require.NoError(t, st.Set("feature", "reader", "on"))

	reopened := NewStore(path, "/tmp/downloads")
	for key, want := range map[string]string{
		"homepage":      "https://start.example",
		"search-engine": "https://duckduckgo.com/?q=%s",
		"dark-mode":     "on",
		"zoom":          "1.25",
	} {
		got, err := reopened.Get(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}
	got, err := reopened.Get("feature", "reader")
	require.NoError(t, err)
	assert.Equal(t, "on", got)
	got, err = reopened.Get("feature")
	require.NoError(t, err)
	assert.Equal(t, "reader=on", got)
}

func TestSetRejectsBadValues(t *testing.T) {
	st, _ := newTestStore(t)

	assert.ErrorIs(t, st.Set("colour", "red"), ErrUnknownKey)
	assert.Error(t, st.Set("search-engine", "https://example.com/search"))
	assert.Error(t, st.Set("dark-mode", "maybe"))
	assert.Error(t, st.Set("zoom", "big"))
	assert.Error(t, st.Set("feature", "reader"))
	assert.Error(t, st.Set("window-size", "800x600"))
	_, err := st.Get("colour")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestZoomLevelIsClamped(t *testing.T) {
	st, _ := newTestStore(t)

	require.NoError(t, st.Set("zoom", "9"))
	assert.Equal(t, MaxZoom, st.ZoomLevel())
	require.NoError(t, st.SetZoomLevel(0.01))
	assert.Equal(t, MinZoom, st.ZoomLevel())
}
