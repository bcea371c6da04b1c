package export

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

// Data is what gets exported: the bookmark tree and recent history,
// newest first.
type Data struct {
	Bookmarks *settings.BookmarkTree
	History   []types.HistoryEntry
	Now       time.Time // zero means time.Now
}

func (d Data) now() time.Time {
	if d.Now.IsZero() {
		return time.Now()
	}
	return d.Now
}

type jsonExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Categories []jsonCategory `json:"categories"`
	History    []jsonVisit    `json:"history"`
}

type jsonCategory struct {
	Name      string         `json:"name"`
	Bookmarks []jsonBookmark `json:"bookmarks"`
}

type jsonBookmark struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

type jsonVisit struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Domain        string    `json:"domain"`
	VisitedAt     time.Time `json:"visited_at"`
	VisitedPretty string    `json:"visited_pretty"`
}

// JSON formats bookmarks and history as a JSON document.
func JSON(data Data) (string, error) {
	now := data.now()
	out := jsonExport{
		ExportedAt: now,
		Categories: []jsonCategory{},
		History:    make([]jsonVisit, 0, len(data.History)),
	}

	if data.Bookmarks != nil {
		for _, name := range data.Bookmarks.Categories() {
			items := data.Bookmarks.Get(name)
			cat := jsonCategory{Name: name, Bookmarks: make([]jsonBookmark, 0, len(items))}
			for _, bm := range items {
				cat.Bookmarks = append(cat.Bookmarks, jsonBookmark{
					Name:   bm.Name,
					URL:    bm.URL,
					Domain: extractDomain(bm.URL),
				})
			}
			out.Categories = append(out.Categories, cat)
		}
	}

	for _, h := range data.History {
		out.History = append(out.History, jsonVisit{
			Title:         h.Title,
			URL:           h.URL,
			Domain:        extractDomain(h.URL),
			VisitedAt:     h.Time().UTC(),
			VisitedPretty: relativeTime(now, h.Time()),
		})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
