package snapshot

import (
	"database/sql"
	"fmt"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/storage"
	"github.com/lotas/tabhost/internal/types"
)

// Opener reopens one archived window.
type Opener func(urls []string, active int) error

// FromWindows converts live windows for archiving. Private tabs are dropped,
// as are windows left with no tabs.
func FromWindows(windows []types.WindowInfo) []storage.SessionWindow {
	var out []storage.SessionWindow
	for _, w := range windows {
		sw := storage.SessionWindow{}
		for i, t := range w.Tabs {
			if t.Private {
				continue
			}
			if i == w.ActiveIndex {
				sw.ActiveIndex = len(sw.Tabs)
			}
			sw.Tabs = append(sw.Tabs, storage.SessionTab{URL: t.URL, Title: t.Title})
		}
		if len(sw.Tabs) > 0 {
			out = append(out, sw)
		}
	}
	return out
}

// FromImported converts windows read from another browser's session file.
func FromImported(windows []types.ImportedWindow) []storage.SessionWindow {
	var out []storage.SessionWindow
	for _, w := range windows {
		sw := storage.SessionWindow{ActiveIndex: w.Selected}
		for _, t := range w.Tabs {
			sw.Tabs = append(sw.Tabs, storage.SessionTab{URL: t.URL, Title: t.Title})
		}
		if sw.ActiveIndex < 0 || sw.ActiveIndex >= len(sw.Tabs) {
			sw.ActiveIndex = 0
		}
		if len(sw.Tabs) > 0 {
			out = append(out, sw)
		}
	}
	return out
}

// Create archives windows under source. It skips saving when there is
// nothing to archive or the URL set matches the latest session. Returns the
// rev number, whether a new session was created, the diff against the
// previous session (nil if first) and error.
func Create(db *sql.DB, source string, windows []storage.SessionWindow, label string) (rev int, created bool, diff *DiffResult, err error) {
	tabs := 0
	for _, w := range windows {
		tabs += len(w.Tabs)
	}
	if tabs == 0 {
		applog.Info("session.skipped", "source", source, "reason", "empty")
		return 0, false, nil, nil
	}

	latest, err := storage.GetLatestSession(db, source)
	if err != nil {
		return 0, false, nil, fmt.Errorf("get latest session: %w", err)
	}

	current := &storage.SessionFull{Windows: windows}
	if latest != nil {
		d := diffTabs(latest.AllTabs(), current.AllTabs())
		if len(d.Added) == 0 && len(d.Removed) == 0 {
			applog.Info("session.skipped", "source", source, "rev", latest.Rev)
			return latest.Rev, false, nil, nil
		}
		d.RevFrom = latest.Rev
		diff = d
	}

	newRev, err := storage.CreateSession(db, source, windows, label)
	if err != nil {
		return 0, false, nil, err
	}
	if diff != nil {
		diff.RevTo = newRev
	}
	applog.Info("session.created", "rev", newRev, "tabs", tabs, "source", source)
	return newRev, true, diff, nil
}

// Restore reopens every window of a session through open. rev 0 means the
// latest. Returns the number of tabs reopened.
func Restore(db *sql.DB, source string, rev int, open Opener) (int, error) {
	var s *storage.SessionFull
	var err error
	if rev == 0 {
		s, err = storage.GetLatestSession(db, source)
		if err == nil && s == nil {
			err = fmt.Errorf("%w: no sessions for source %q", storage.ErrSessionNotFound, source)
		}
	} else {
		s, err = storage.GetSession(db, source, rev)
	}
	if err != nil {
		return 0, err
	}

	applog.Info("session.restore.start", "rev", s.Rev, "source", source)
	n := 0
	for _, w := range s.Windows {
		urls := make([]string, 0, len(w.Tabs))
		for _, t := range w.Tabs {
			urls = append(urls, t.URL)
		}
		if err := open(urls, w.ActiveIndex); err != nil {
			return n, fmt.Errorf("reopen window: %w", err)
		}
		n += len(urls)
	}
	applog.Info("session.restore.done", "rev", s.Rev, "tabs", n)
	return n, nil
}
