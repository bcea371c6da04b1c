package snapshot

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lotas/tabhost/internal/storage"
)

// DiffEntry represents a single tab in a diff result.
type DiffEntry struct {
	URL   string
	Title string
}

// DiffResult holds the result of comparing two tab sets.
type DiffResult struct {
	RevFrom int
	RevTo   int         // 0 when compared against live windows
	Added   []DiffEntry // in the newer set only
	Removed []DiffEntry // in the older set only
}

// diffTabs compares two tab lists by URL. Output is sorted by URL.
func diffTabs(older, newer []storage.SessionTab) *DiffResult {
	oldURLs := make(map[string]storage.SessionTab, len(older))
	for _, t := range older {
		oldURLs[t.URL] = t
	}
	newURLs := make(map[string]storage.SessionTab, len(newer))
	for _, t := range newer {
		newURLs[t.URL] = t
	}

	result := &DiffResult{}
	for url, t := range newURLs {
		if _, ok := oldURLs[url]; !ok {
			result.Added = append(result.Added, DiffEntry{URL: t.URL, Title: t.Title})
		}
	}
	for url, t := range oldURLs {
		if _, ok := newURLs[url]; !ok {
			result.Removed = append(result.Removed, DiffEntry{URL: t.URL, Title: t.Title})
		}
	}
	sort.Slice(result.Added, func(i, j int) bool { return result.Added[i].URL < result.Added[j].URL })
	sort.Slice(result.Removed, func(i, j int) bool { return result.Removed[i].URL < result.Removed[j].URL })
	return result
}

func loadRev(db *sql.DB, source string, rev int) (*storage.SessionFull, error) {
	if rev != 0 {
		return storage.GetSession(db, source, rev)
	}
	s, err := storage.GetLatestSession(db, source)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no sessions for source %q", storage.ErrSessionNotFound, source)
	}
	return s, nil
}

// DiffAgainstCurrent compares an archived session (rev 0 = latest) with
// the given windows.
func DiffAgainstCurrent(db *sql.DB, source string, rev int, current []storage.SessionWindow) (*DiffResult, error) {
	s, err := loadRev(db, source, rev)
	if err != nil {
		return nil, err
	}
	result := diffTabs(s.AllTabs(), (&storage.SessionFull{Windows: current}).AllTabs())
	result.RevFrom = s.Rev
	return result, nil
}

// DiffRevisions compares two archived sessions of the same source.
func DiffRevisions(db *sql.DB, source string, from, to int) (*DiffResult, error) {
	a, err := storage.GetSession(db, source, from)
	if err != nil {
		return nil, err
	}
	b, err := storage.GetSession(db, source, to)
	if err != nil {
		return nil, err
	}
	result := diffTabs(a.AllTabs(), b.AllTabs())
	result.RevFrom, result.RevTo = from, to
	return result, nil
}

// FormatDiff returns a human-readable string representation of a DiffResult.
func FormatDiff(d *DiffResult) string {
	var sb strings.Builder

	if d.RevTo == 0 {
		fmt.Fprintf(&sb, "Diff #%d -> current\n", d.RevFrom)
	} else {
		fmt.Fprintf(&sb, "Diff #%d -> #%d\n", d.RevFrom, d.RevTo)
	}
	fmt.Fprintf(&sb, "Added: %d  Removed: %d\n", len(d.Added), len(d.Removed))

	if len(d.Added) > 0 {
		sb.WriteString("\n+ Added:\n")
		for _, e := range d.Added {
			fmt.Fprintf(&sb, "  + %s\n", e.URL)
		}
	}

	if len(d.Removed) > 0 {
		sb.WriteString("\n- Removed:\n")
		for _, e := range d.Removed {
			fmt.Fprintf(&sb, "  - %s\n", e.URL)
		}
	}

	if len(d.Added) == 0 && len(d.Removed) == 0 {
		sb.WriteString("\nNo changes.\n")
	}

	return sb.String()
}
