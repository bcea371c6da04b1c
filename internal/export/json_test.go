package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleData() Data {
	tree := settings.NewBookmarkTree()
	tree.Append("Research", types.Bookmark{Name: "Go docs", URL: "https://go.dev/doc"})
	tree.Append("Research", types.Bookmark{Name: "Bubble Tea", URL: "https://github.com/charmbracelet/bubbletea"})
	tree.Append("Empty", types.Bookmark{Name: "x", URL: "https://x.example"})
	tree.RemoveAt("Empty", 0)

	return Data{
		Bookmarks: tree,
		History: []types.HistoryEntry{
			{URL: "https://example.com", Title: "Example", Timestamp: fixedNow.Add(-5 * time.Hour).Unix()},
			{URL: "https://old.example/page", Title: "", Timestamp: fixedNow.Add(-3 * 24 * time.Hour).Unix()},
		},
		Now: fixedNow,
	}
}

func TestJSON_BookmarksAndHistory(t *testing.T) {
	result, err := JSON(sampleData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed jsonExport
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\noutput:\n%s", err, result)
	}

	if len(parsed.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(parsed.Categories))
	}
	if parsed.Categories[0].Name != "Research" {
		t.Errorf("expected category 'Research', got %q", parsed.Categories[0].Name)
	}
	if len(parsed.Categories[0].Bookmarks) != 2 {
		t.Errorf("expected 2 bookmarks in Research, got %d", len(parsed.Categories[0].Bookmarks))
	}
	if parsed.Categories[0].Bookmarks[1].Domain != "github.com" {
		t.Errorf("expected domain 'github.com', got %q", parsed.Categories[0].Bookmarks[1].Domain)
	}
	if parsed.Categories[1].Bookmarks == nil || len(parsed.Categories[1].Bookmarks) != 0 {
		t.Errorf("empty category should export an empty list")
	}

	if len(parsed.History) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(parsed.History))
	}
	if parsed.History[0].VisitedPretty != "5h ago" {
		t.Errorf("expected '5h ago', got %q", parsed.History[0].VisitedPretty)
	}
	if parsed.History[1].Domain != "old.example" {
		t.Errorf("expected domain 'old.example', got %q", parsed.History[1].Domain)
	}
	if !parsed.ExportedAt.Equal(fixedNow) {
		t.Errorf("expected exported_at %v, got %v", fixedNow, parsed.ExportedAt)
	}
}

func TestJSON_Empty(t *testing.T) {
	result, err := JSON(Data{Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed jsonExport
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(parsed.Categories) != 0 || len(parsed.History) != 0 {
		t.Errorf("expected empty export, got %+v", parsed)
	}
}
