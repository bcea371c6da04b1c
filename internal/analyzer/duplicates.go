package analyzer

import (
	"github.com/lotas/tabhost/internal/navigate"
	"github.com/lotas/tabhost/internal/types"
)

// TabRef locates a tab inside a snapshot.
type TabRef struct {
	WindowID string
	TabID    string
	Index    int
}

// DuplicateGroup is a set of open tabs showing the same page.
type DuplicateGroup struct {
	URL  string // canonical form
	Tabs []TabRef
}

// Duplicates groups tabs whose URLs are equal once the fragment, query
// order and trailing slash are ignored. Private tabs are only compared
// with tabs of the same window, since they never share state with others.
// Groups come back in order of first appearance.
func Duplicates(windows []types.WindowInfo) []DuplicateGroup {
	groups := make(map[string]*DuplicateGroup)
	var order []string
	for _, w := range windows {
		for i, t := range w.Tabs {
			if !navigate.IsWebURL(t.URL) {
				continue
			}
			key := navigate.CanonicalURL(t.URL)
			if t.Private {
				key = w.ID + "|" + key
			}
			g, ok := groups[key]
			if !ok {
				g = &DuplicateGroup{URL: navigate.CanonicalURL(t.URL)}
				groups[key] = g
				order = append(order, key)
			}
			g.Tabs = append(g.Tabs, TabRef{WindowID: w.ID, TabID: t.ID, Index: i})
		}
	}

	var out []DuplicateGroup
	for _, key := range order {
		if g := groups[key]; len(g.Tabs) > 1 {
			out = append(out, *g)
		}
	}
	return out
}
